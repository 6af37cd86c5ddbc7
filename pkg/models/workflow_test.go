package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalytics_Record(t *testing.T) {
	t.Run("single approved run", func(t *testing.T) {
		a := Analytics{}
		a.Record(10, true)

		assert.Equal(t, int64(1), a.TotalUsage)
		assert.InDelta(t, 10.0, a.AverageCompletionTime, 1e-9)
		assert.InDelta(t, 100.0, a.ApprovalRate, 1e-9)
	})

	t.Run("running mean matches batch mean", func(t *testing.T) {
		a := Analytics{}

		times := []float64{4, 8, 12, 24, 2}
		approved := []bool{true, true, false, true, false}

		var sum float64

		approvedCount := 0

		for i, hours := range times {
			a.Record(hours, approved[i])
			sum += hours

			if approved[i] {
				approvedCount++
			}
		}

		n := float64(len(times))
		assert.Equal(t, int64(len(times)), a.TotalUsage)
		assert.InDelta(t, sum/n, a.AverageCompletionTime, 1e-9)
		assert.InDelta(t, float64(approvedCount)/n*100, a.ApprovalRate, 1e-9)
	})

	t.Run("resumes from persisted counters", func(t *testing.T) {
		// Analytics loaded from a store mid-history must keep producing the
		// same means as an unbroken in-memory sequence.
		fresh := Analytics{}
		fresh.Record(10, true)
		fresh.Record(20, false)

		resumed := Analytics{
			TotalUsage:            fresh.TotalUsage,
			AverageCompletionTime: fresh.AverageCompletionTime,
			ApprovalRate:          fresh.ApprovalRate,
		}

		fresh.Record(30, true)
		resumed.Record(30, true)

		assert.InDelta(t, fresh.AverageCompletionTime, resumed.AverageCompletionTime, 1e-9)
		assert.InDelta(t, fresh.ApprovalRate, resumed.ApprovalRate, 1e-9)
	})

	t.Run("zero completion time folds in as-is", func(t *testing.T) {
		a := Analytics{}
		a.Record(10, true)
		a.Record(0, false)

		assert.Equal(t, int64(2), a.TotalUsage)
		assert.InDelta(t, 5.0, a.AverageCompletionTime, 1e-9)
		assert.InDelta(t, 50.0, a.ApprovalRate, 1e-9)
	})
}
