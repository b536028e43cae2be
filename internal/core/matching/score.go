package matching

import "recipe-matcher/internal/core/catalog"

// Result 單一食譜對候選食材的配對結果；Matched 與 Missing 恰好分割所需食材
type Result struct {
	Matched    catalog.IDSet
	Missing    catalog.IDSet
	Percentage float64
}

// Total 食譜所需食材數
func (r Result) Total() int {
	return len(r.Matched) + len(r.Missing)
}

// Complete 是否所有食材都已具備
func (r Result) Complete() bool {
	return len(r.Missing) == 0 && len(r.Matched) > 0
}

// Score 計算所需食材與候選食材的交集、差集與配對百分比（不做四捨五入）。
// required 為空時回傳零值，呼叫端應先排除沒有食材的食譜。
func Score(required, candidates catalog.IDSet) Result {
	res := Result{
		Matched: make(catalog.IDSet),
		Missing: make(catalog.IDSet),
	}
	if len(required) == 0 {
		return res
	}
	for id := range required {
		if candidates.Has(id) {
			res.Matched[id] = struct{}{}
		} else {
			res.Missing[id] = struct{}{}
		}
	}
	res.Percentage = 100 * float64(len(res.Matched)) / float64(len(required))
	return res
}
