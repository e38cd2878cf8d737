package onboarding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

func tasksWith(statuses ...models.OnboardingStatus) []models.OnboardingTask {
	tasks := make([]models.OnboardingTask, 0, len(statuses))
	for i, status := range statuses {
		tasks = append(tasks, models.OnboardingTask{ID: uint(i + 1), ClientID: 1, Status: status})
	}
	return tasks
}

func TestComputeProgressEmptyIsZero(t *testing.T) {
	require.Equal(t, 0, ComputeProgress(nil))
	require.Equal(t, 0, ComputeProgress([]models.OnboardingTask{}))
}

func TestComputeProgressScenarios(t *testing.T) {
	cases := []struct {
		name     string
		statuses []models.OnboardingStatus
		expected int
	}{
		{"half approved", []models.OnboardingStatus{models.StatusApproved, models.StatusApproved, models.StatusRejected, models.StatusPending}, 50},
		{"reviewed counts", []models.OnboardingStatus{models.StatusApproved, models.StatusReviewed, models.StatusApproved}, 100},
		{"received does not count", []models.OnboardingStatus{models.StatusReceived, models.StatusReceived}, 0},
		{"rounds to nearest", []models.OnboardingStatus{models.StatusApproved, models.StatusPending, models.StatusPending}, 33},
		{"rounds half up", []models.OnboardingStatus{models.StatusApproved, models.StatusReviewed, models.StatusPending}, 67},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ComputeProgress(tasksWith(tc.statuses...)))
		})
	}
}

func TestComputeProgressReceivedNeverIncreases(t *testing.T) {
	base := tasksWith(models.StatusApproved, models.StatusPending)
	before := ComputeProgress(base)

	base[1].Status = models.StatusReceived
	require.Equal(t, before, ComputeProgress(base))
}

func TestComputeProgressStaysInRange(t *testing.T) {
	for size := 0; size <= 6; size++ {
		for _, status := range models.OnboardingStatuses {
			statuses := make([]models.OnboardingStatus, size)
			for i := range statuses {
				statuses[i] = status
			}
			progress := ComputeProgress(tasksWith(statuses...))
			require.GreaterOrEqual(t, progress, 0)
			require.LessOrEqual(t, progress, 100)
		}
	}
}

func TestDeriveStage(t *testing.T) {
	require.Equal(t, models.StageDocumentCollection, DeriveStage(nil))
	require.Equal(t, models.StageDocumentCollection, DeriveStage(tasksWith(models.StatusApproved, models.StatusPending)))
	require.Equal(t, models.StageDocumentCollection, DeriveStage(tasksWith(models.StatusApproved, models.StatusRejected)))
	require.Equal(t, models.StageReview, DeriveStage(tasksWith(models.StatusApproved, models.StatusReceived)))
	require.Equal(t, models.StageCompleted, DeriveStage(tasksWith(models.StatusApproved, models.StatusReviewed)))
}

func TestStatusCountsIncludesEveryStatus(t *testing.T) {
	counts := StatusCounts(tasksWith(models.StatusApproved, models.StatusApproved, models.StatusPending))
	require.Len(t, counts, len(models.OnboardingStatuses))
	require.Equal(t, 2, counts[models.StatusApproved])
	require.Equal(t, 1, counts[models.StatusPending])
	require.Equal(t, 0, counts[models.StatusRejected])
}
