package app

import (
	"testing"

	"complyhub/api/internal/store"
)

func TestStatusDescriptorsCoverEveryStatus(t *testing.T) {
	descriptors := StatusDescriptors()
	byStatus := make(map[store.DocumentStatus]StatusDescriptor, len(descriptors))
	for _, d := range descriptors {
		if _, dup := byStatus[d.Status]; dup {
			t.Errorf("duplicate descriptor for %s", d.Status)
		}
		byStatus[d.Status] = d
	}

	for _, status := range store.AllStatuses() {
		d, ok := byStatus[status]
		if !ok {
			t.Errorf("no descriptor for status %s", status)
			continue
		}
		if d.Label != string(status) {
			t.Errorf("label for %s should equal the wire value, got %q", status, d.Label)
		}
		if d.Color == "" {
			t.Errorf("descriptor for %s has no color", status)
		}
	}

	if len(descriptors) != len(store.AllStatuses()) {
		t.Errorf("descriptor count %d does not match status count %d", len(descriptors), len(store.AllStatuses()))
	}
}

func TestStatusDescriptorColors(t *testing.T) {
	want := map[store.DocumentStatus]string{
		store.StatusPending:             "yellow",
		store.StatusReceived:            "blue",
		store.StatusUnderReview:         "purple",
		store.StatusApproved:            "green",
		store.StatusRejected:            "red",
		store.StatusClarificationNeeded: "gray",
	}
	for _, d := range StatusDescriptors() {
		if d.Color != want[d.Status] {
			t.Errorf("%s: expected %s, got %s", d.Status, want[d.Status], d.Color)
		}
	}
}
