package pass

const (
	ReasonAlreadyOwned    = "already have this pass"
	ReasonDowngradeToFree = "cannot downgrade to the free pass"
	ReasonDowngrade       = "cannot downgrade within the same category"
)

// Decision 购买判定
type Decision struct {
	CanPurchase bool   `json:"can_purchase"`
	Reason      string `json:"reason,omitempty"`
}

// CanPurchase 判断从 current 切换到 target 是否允许
//
// 同类别内只能升级；买家与卖家类别之间可以互相切换；付费后不能回到 free。
func CanPurchase(current, target Type) Decision {
	if current == target {
		return Decision{Reason: ReasonAlreadyOwned}
	}

	cur, tgt := Info(current), Info(target)

	if tgt.Category == CategoryFree && cur.Category != CategoryFree {
		return Decision{Reason: ReasonDowngradeToFree}
	}

	if cur.Category == tgt.Category && tgt.Rank < cur.Rank {
		return Decision{Reason: ReasonDowngrade}
	}

	return Decision{CanPurchase: true}
}
