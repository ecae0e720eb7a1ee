package generator

import (
	"github.com/samber/lo"

	"qa-platform/pkg/constants"
)

// Options 生成选项
type Options struct {
	IncludeCRUD       bool
	IncludeValidation bool
	IncludeWorkflow   bool
	IncludeSecurity   bool
	IncludeNegative   bool
	MaxTests          int // 单模型用例上限, <=0 时使用默认值
}

// DefaultOptions 默认全开
func DefaultOptions() Options {
	return Options{
		IncludeCRUD:       true,
		IncludeValidation: true,
		IncludeWorkflow:   true,
		IncludeSecurity:   true,
		IncludeNegative:   true,
		MaxTests:          constants.DefaultMaxTestsPerModel,
	}
}

// 超出上限时的裁剪顺序: 先裁 negative, 再裁 security, 最后从尾部截断
var truncationOrder = []string{constants.CategoryNegative, constants.CategorySecurity}

// ApplyCaps 按选项过滤类别并执行数量上限
// 结果保持输入顺序, 相同输入必然产出相同结果
func ApplyCaps(cases []DraftCase, opts Options) []DraftCase {
	max := opts.MaxTests
	if max <= 0 {
		max = constants.DefaultMaxTestsPerModel
	}

	kept := lo.Filter(cases, func(tc DraftCase, _ int) bool {
		return categoryEnabled(tc.Category, opts)
	})

	for _, category := range truncationOrder {
		if len(kept) <= max {
			break
		}
		overflow := len(kept) - max
		// 从尾部裁掉该类别的用例
		for i := len(kept) - 1; i >= 0 && overflow > 0; i-- {
			if kept[i].Category == category {
				kept = append(kept[:i], kept[i+1:]...)
				overflow--
			}
		}
	}

	if len(kept) > max {
		kept = kept[:max]
	}
	return kept
}

func categoryEnabled(category string, opts Options) bool {
	switch category {
	case constants.CategoryCRUD:
		return opts.IncludeCRUD
	case constants.CategoryValidation:
		return opts.IncludeValidation
	case constants.CategoryWorkflow:
		return opts.IncludeWorkflow
	case constants.CategorySecurity:
		return opts.IncludeSecurity
	case constants.CategoryNegative:
		return opts.IncludeNegative
	default:
		return true
	}
}
