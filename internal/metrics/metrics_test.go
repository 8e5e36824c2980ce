// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RunFinishedStatus(t *testing.T) {
	r := NewRecorder()

	tests := []struct {
		name       string
		op         string
		unitErrors int
		err        error
		status     string
	}{
		{name: "clean", op: "test_clean", status: "success"},
		{name: "partial", op: "test_partial", unitErrors: 2, status: "partial"},
		{name: "fatal", op: "test_fatal", err: errors.New("no root"), status: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.RunStarted(tt.op)
			assert.Equal(t, 1.0, testutil.ToFloat64(RunInProgress.WithLabelValues(tt.op)))

			r.RunFinished(tt.op, time.Second, tt.unitErrors, tt.err)
			assert.Equal(t, 0.0, testutil.ToFloat64(RunInProgress.WithLabelValues(tt.op)))
			assert.Equal(t, 1.0, testutil.ToFloat64(RunsTotal.WithLabelValues(tt.op, tt.status)))
			assert.Equal(t, float64(tt.unitErrors), testutil.ToFloat64(UnitErrorsTotal.WithLabelValues(tt.op)))
		})
	}
}

func TestRecorder_Indexed(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	NewRecorder().Indexed(1, 2, 3, at)

	assert.Equal(t, 1.0, testutil.ToFloat64(IndexedTotal.WithLabelValues("year")))
	assert.Equal(t, 2.0, testutil.ToFloat64(IndexedTotal.WithLabelValues("event")))
	assert.Equal(t, 3.0, testutil.ToFloat64(IndexedTotal.WithLabelValues("item")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(LastRebuildTimestamp))
}

func TestRecorder_SynthesizedAndRemoved(t *testing.T) {
	r := NewRecorder()
	before := testutil.ToFloat64(FilesRemovedTotal)

	r.Synthesized("test_orphan", 3)
	r.Synthesized("test_orphan", 0)
	r.Removed(2)

	assert.Equal(t, 3.0, testutil.ToFloat64(FilesSynthesizedTotal.WithLabelValues("test_orphan")))
	assert.Equal(t, before+2, testutil.ToFloat64(FilesRemovedTotal))
}

func TestHandler(t *testing.T) {
	NewRecorder().RunStarted("test_handler")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "memorylane_run_in_progress")
}
