package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"destiny_blue/internal/app"
	"destiny_blue/internal/domain"
)

func TestClassifyAlert(t *testing.T) {
	cases := []struct {
		msg  string
		want app.AlertKind
	}{
		{"There is smoke coming from the oven!", app.AlertEmergency},
		{"We're locked out and the code doesn't work", app.AlertLockout},
		{"the pin not working, also the AC is broken", app.AlertLockout},
		{"The A/C is broken", app.AlertMaintenance},
		{"no hot water in the shower", app.AlertMaintenance},
		{"We're ready to book for March", app.AlertBooking},
		{"Is there a firepit on the beach?", app.AlertNone},
		{"What's the wifi password?", app.AlertNone},
		{"", app.AlertNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, app.ClassifyAlert(tc.msg), tc.msg)
	}
}

func TestFanout(t *testing.T) {
	ok := &fakeNotifier{}
	bad := &fakeNotifier{err: errors.New("down")}
	var unset *fakeNotifier

	f := app.NewFanout(bad, unset, nil, ok)
	assert.Len(t, f, 2)

	id, err := f.Notify(context.Background(), domain.Notice{Title: "x"})
	assert.Equal(t, "notice-1", id)
	assert.Error(t, err)
	assert.Len(t, ok.notices, 1, "a failing channel does not block the others")
}
