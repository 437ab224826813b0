package main

import (
	"bytes"
	"testing"

	"github.com/borzacchiello/goegg"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountEveryIteration(t *testing.T) {
	m := newRunMetrics()
	r := goegg.NewRunner().
		WithExpr(goegg.MustParseExpr("(∨ (∧ p q) (∧ q p))")).
		WithIterLimit(3)
	m.install(r)
	r.Run(goegg.BooleanRules())

	require.NotEmpty(t, r.Iterations)
	last := r.Iterations[len(r.Iterations)-1]
	assert.Equal(t, float64(len(r.Iterations)), testutil.ToFloat64(m.iterations))
	assert.Equal(t, float64(last.Nodes), testutil.ToFloat64(m.nodes))
	assert.Equal(t, float64(last.Classes), testutil.ToFloat64(m.classes))

	buf := bytes.Buffer{}
	require.NoError(t, m.write(&buf))
	assert.Contains(t, buf.String(), "goegg_iterations_total ")
}
