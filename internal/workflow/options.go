package workflow

import (
	"sort"

	"github.com/iliyamo/portal-compras-gateway/internal/model"
)

// optionRank orders decision options for display: reject first, approve
// last, everything else in between keeping its original order.
func optionRank(code string) int {
	switch code {
	case model.OptionReject:
		return 0
	case model.OptionApprove:
		return 2
	}
	return 1
}

// SortOptions returns the options in display order without touching the
// input slice.
func SortOptions(opts []model.TaskOption) []model.TaskOption {
	out := append([]model.TaskOption(nil), opts...)
	sort.SliceStable(out, func(i, j int) bool {
		return optionRank(out[i].Code) < optionRank(out[j].Code)
	})
	return out
}

// OptionClass labels an option code for metrics and audit.
func OptionClass(code string) string {
	switch optionRank(code) {
	case 0:
		return "reject"
	case 2:
		return "approve"
	}
	return "other"
}
