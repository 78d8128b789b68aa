package service

import "oraia/internal/models"

// MergeState applies a user override on top of the dataset state. Each
// field of user that is set wins; unset fields keep the dataset value.
func MergeState(dataset models.LemmaState, user *models.UserLemmaState) models.LemmaState {
	merged := dataset
	if user == nil {
		return merged
	}
	if user.IsFavorite != nil {
		merged.IsFavorite = *user.IsFavorite
	}
	if user.Status != nil {
		merged.Status = *user.Status
	}
	return merged
}
