// Package pass 通行证（套餐）目录与权益解析。
//
// 七种通行证构成封闭枚举，权益是静态查表，未知值一律回落到 free。
package pass

type Type string

const (
	Free          Type = "free"
	BuyerStarter  Type = "buyer_starter"
	BuyerBasic    Type = "buyer_basic"
	BuyerPro      Type = "buyer_pro"
	SellerStarter Type = "seller_starter"
	SellerBasic   Type = "seller_basic"
	SellerPro     Type = "seller_pro"
)

type Category string

const (
	CategoryFree   Category = "free"
	CategoryBuyer  Category = "buyer"
	CategorySeller Category = "seller"
)

// Entitlement 解析后的额度与功能开关
type Entitlement struct {
	ChatLimit         int  `json:"chat_limit"`
	ListingLimit      int  `json:"listing_limit"`
	UnlimitedChats    bool `json:"unlimited_chats"`
	UnlimitedListings bool `json:"unlimited_listings"`
	ContactAccess     bool `json:"contact_access"`
	EarlyAccess       bool `json:"early_access"`
	VerifiedBadge     bool `json:"verified_badge"`
	PrioritySearch    bool `json:"priority_search"`
}

// Details 目录展示信息，价格单位为卢比
type Details struct {
	Type        Type        `json:"type"`
	Name        string      `json:"name"`
	Category    Category    `json:"category"`
	Rank        int         `json:"rank"`
	Price       float64     `json:"price"`
	Entitlement Entitlement `json:"entitlement"`
}

const (
	defaultChatLimit    = 2
	defaultListingLimit = 2
)

var catalogue = map[Type]Details{
	Free: {
		Type: Free, Name: "Free", Category: CategoryFree, Rank: 0, Price: 0,
		Entitlement: Entitlement{ChatLimit: defaultChatLimit, ListingLimit: defaultListingLimit},
	},
	BuyerStarter: {
		Type: BuyerStarter, Name: "Buyer Starter", Category: CategoryBuyer, Rank: 1, Price: 49,
		Entitlement: Entitlement{ChatLimit: 10, ListingLimit: defaultListingLimit},
	},
	BuyerBasic: {
		Type: BuyerBasic, Name: "Buyer Basic", Category: CategoryBuyer, Rank: 2, Price: 99,
		Entitlement: Entitlement{ChatLimit: 30, ListingLimit: defaultListingLimit, ContactAccess: true},
	},
	BuyerPro: {
		Type: BuyerPro, Name: "Buyer Pro", Category: CategoryBuyer, Rank: 3, Price: 199,
		Entitlement: Entitlement{
			ListingLimit:   defaultListingLimit,
			UnlimitedChats: true,
			ContactAccess:  true,
			EarlyAccess:    true,
		},
	},
	SellerStarter: {
		Type: SellerStarter, Name: "Seller Starter", Category: CategorySeller, Rank: 1, Price: 49,
		Entitlement: Entitlement{ChatLimit: defaultChatLimit, ListingLimit: 10},
	},
	SellerBasic: {
		Type: SellerBasic, Name: "Seller Basic", Category: CategorySeller, Rank: 2, Price: 99,
		Entitlement: Entitlement{ChatLimit: defaultChatLimit, ListingLimit: 30, VerifiedBadge: true},
	},
	SellerPro: {
		Type: SellerPro, Name: "Seller Pro", Category: CategorySeller, Rank: 3, Price: 199,
		Entitlement: Entitlement{
			ChatLimit:         defaultChatLimit,
			UnlimitedListings: true,
			VerifiedBadge:     true,
			PrioritySearch:    true,
		},
	},
}

// order 目录展示顺序
var order = []Type{Free, BuyerStarter, BuyerBasic, BuyerPro, SellerStarter, SellerBasic, SellerPro}

// Parse 校验字符串是否为已知通行证
func Parse(s string) (Type, bool) {
	t := Type(s)
	_, ok := catalogue[t]
	return t, ok
}

// Resolve 返回通行证权益，未知值回落到 free
func Resolve(t Type) Entitlement {
	return Info(t).Entitlement
}

// Info 返回通行证目录信息，未知值回落到 free
func Info(t Type) Details {
	d, ok := catalogue[t]
	if !ok {
		return catalogue[Free]
	}
	return d
}

// All 按展示顺序返回全部通行证
func All() []Details {
	out := make([]Details, 0, len(order))
	for _, t := range order {
		out = append(out, catalogue[t])
	}
	return out
}

// IsPaid 价格大于 0
func (t Type) IsPaid() bool {
	return Info(t).Price > 0
}

// AllowsChat 计数是否仍在额度内
func (e Entitlement) AllowsChat(used int) bool {
	return e.UnlimitedChats || used < e.ChatLimit
}

// AllowsListing 计数是否仍在额度内
func (e Entitlement) AllowsListing(used int) bool {
	return e.UnlimitedListings || used < e.ListingLimit
}
