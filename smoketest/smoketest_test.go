package smoketest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	res := Run()
	require.True(t, res.Passed)
	require.Len(t, res.Scenarios, len(scenarios))

	for _, s := range res.Scenarios {
		require.True(t, s.Passed, s.Name)
		require.Empty(t, s.Error)
	}
}

func TestRunScenario(t *testing.T) {
	t.Run("failure is wrapped", func(t *testing.T) {
		err := runScenario(scenario{
			name: "failing",
			run: func() error {
				return errors.New("boom")
			},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "scenario failed")
	})

	t.Run("panic is recovered", func(t *testing.T) {
		err := runScenario(scenario{
			name: "panicking",
			run: func() error {
				panic("boom")
			},
		})
		require.Error(t, err)
	})
}

func TestHandleSmokeTest(t *testing.T) {
	w := httptest.NewRecorder()
	HandleSmokeTest()(w, httptest.NewRequest(http.MethodGet, "/smoke-test", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res Results
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Passed)
	require.Len(t, res.Scenarios, len(scenarios))
	require.Equal(t, "moving_circle_changes_pairs", res.Scenarios[0].Name)
}
