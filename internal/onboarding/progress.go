package onboarding

import (
	"math"

	"github.com/noah-isme/onboarding-portal-api/internal/models"
)

// countsAsDone decides which statuses contribute to completion. A received document is not done
// until someone has reviewed it.
func countsAsDone(status models.OnboardingStatus) bool {
	return status == models.StatusApproved || status == models.StatusReviewed
}

// ComputeProgress returns the completion percentage of a client's tasks, 0 for no tasks.
func ComputeProgress(tasks []models.OnboardingTask) int {
	if len(tasks) == 0 {
		return 0
	}

	done := 0
	for _, task := range tasks {
		if countsAsDone(task.Status) {
			done++
		}
	}

	return int(math.Round(100 * float64(done) / float64(len(tasks))))
}

// DeriveStage maps a client's tasks to its onboarding stage.
func DeriveStage(tasks []models.OnboardingTask) models.ClientStage {
	if len(tasks) == 0 {
		return models.StageDocumentCollection
	}
	for _, task := range tasks {
		if task.Status == models.StatusPending || task.Status == models.StatusRejected {
			return models.StageDocumentCollection
		}
	}
	if ComputeProgress(tasks) == 100 {
		return models.StageCompleted
	}
	return models.StageReview
}

// StatusCounts tallies tasks per status; every status is present in the result.
func StatusCounts(tasks []models.OnboardingTask) map[models.OnboardingStatus]int {
	counts := make(map[models.OnboardingStatus]int, len(models.OnboardingStatuses))
	for _, status := range models.OnboardingStatuses {
		counts[status] = 0
	}
	for _, task := range tasks {
		counts[task.Status]++
	}
	return counts
}
