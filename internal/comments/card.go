package comments

import (
	"time"
)

// CardVariant 评论卡片的展示变体。公开树永远不带邮箱；后台变体带邮箱和管理操作。
// 用显式枚举代替一堆布尔参数，每个变体的契约可以单独测试。
type CardVariant int

const (
	VariantPublicCompact CardVariant = iota
	VariantPublicFull
	VariantAdminCompact
	VariantAdminFull
)

// IsAdmin 是否为后台变体
func (v CardVariant) IsAdmin() bool {
	return v == VariantAdminCompact || v == VariantAdminFull
}

// IsCompact 是否为紧凑变体
func (v CardVariant) IsCompact() bool {
	return v == VariantPublicCompact || v == VariantAdminCompact
}

// Card 渲染用的评论视图模型，由 Node 和变体派生。
type Card struct {
	ID           uint
	AuthorName   string
	AuthorEmail  string // 仅后台变体填充
	Content      string
	IsAdminReply bool
	LikesCount   int
	CreatedAt    time.Time
	Depth        int
	CanReply     bool
	Collapsed    bool
	// ChildrenCollapsed 子回复区默认折叠（子层级超过 CollapseDepth），
	// 模板据此隐藏子树并给出展开按钮
	ChildrenCollapsed bool
	Variant           CardVariant
	Liked        bool // 当前访客是否已赞，由调用方查询 join 集合后填充
	Children     []Card
}

// NewCard 由节点和变体构建卡片（递归包含子树）。
func NewCard(n *Node, variant CardVariant) Card {
	card := Card{
		ID:           n.Comment.ID,
		AuthorName:   n.Comment.AuthorName,
		Content:      n.Comment.Content,
		IsAdminReply: n.Comment.IsAdminReply,
		LikesCount:   n.Comment.LikesCount,
		CreatedAt:    n.Comment.CreatedAt,
		Depth:        n.Depth,
		CanReply:     CanReply(n.Depth),
		Collapsed:    Collapsed(n.Depth),
		Variant:      variant,
	}
	if variant.IsAdmin() {
		card.AuthorEmail = n.Comment.AuthorEmail
	}
	for _, child := range n.Children {
		card.Children = append(card.Children, NewCard(child, variant))
	}
	card.ChildrenCollapsed = len(card.Children) > 0 && Collapsed(n.Depth+1)
	return card
}

// NewCards 批量构建
func NewCards(roots []*Node, variant CardVariant) []Card {
	cards := make([]Card, 0, len(roots))
	for _, root := range roots {
		cards = append(cards, NewCard(root, variant))
	}
	return cards
}
