package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleAdmin, ActionAdmin, true},
		{RoleAdmin, ActionRead, true},
		{RoleManager, ActionManage, true},
		{RoleManager, ActionAdmin, false},
		{RoleStaff, ActionReview, true},
		{RoleStaff, ActionAdmin, false},
		{RoleClient, ActionRead, true},
		{RoleClient, ActionComment, true},
		{RoleClient, ActionReview, false},
		{RoleClient, ActionManage, false},
		{RoleViewer, ActionRead, true},
		{RoleViewer, ActionComment, false},
		{Role("ghost"), ActionRead, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.action); got != tc.want {
			t.Errorf("Can(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("Manager"); got != RoleManager {
		t.Errorf("Normalize(Manager) = %s", got)
	}
	if got := Normalize("superuser"); got != RoleViewer {
		t.Errorf("Normalize(superuser) = %s, want Viewer", got)
	}
	if got := Normalize(""); got != RoleViewer {
		t.Errorf("Normalize(empty) = %s, want Viewer", got)
	}
}
