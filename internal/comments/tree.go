package comments

import (
	"inkwell/internal/models"
)

const (
	// MaxReplyDepth 最大可回复层级。第 5 层（Depth 4）的评论仍会入库和渲染，
	// 只是不再提供"回复"入口。这是展示策略，不是存储限制。
	MaxReplyDepth = 4

	// CollapseDepth 超过该层级的回复默认折叠，用户手动展开。
	CollapseDepth = 2

	// DefaultRootWindow 默认只展示最近的 N 条根评论，其余点击后展开。
	DefaultRootWindow = 2
)

// Node 评论森林中的一个节点。Children 按 CreatedAt 升序，与输入顺序一致。
type Node struct {
	Comment  models.Comment
	Depth    int // 根评论为 0
	Children []*Node
}

// BuildForest 把按 created_at 升序排列的扁平评论列表组装成森林。
// 两次线性遍历：第一遍建 id→node 索引，第二遍挂接父子关系。
// 因为输入本身是时间有序的，两遍都保持原顺序，无需任何排序步骤。
// 父评论缺失（已删除或未加载）的回复会被提升为根节点，而不是丢弃。
func BuildForest(list []models.Comment) []*Node {
	index := make(map[uint]*Node, len(list))
	for i := range list {
		index[list[i].ID] = &Node{Comment: list[i]}
	}

	roots := make([]*Node, 0, len(list))
	for i := range list {
		node := index[list[i].ID]
		if list[i].ParentID != nil {
			if parent, ok := index[*list[i].ParentID]; ok && parent != node {
				node.Depth = parent.Depth + 1
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		// 顶层评论，或孤儿回复提升为根
		node.Depth = 0
		roots = append(roots, node)
	}

	return roots
}

// Walk 先序遍历整个森林（父在前、子在后，兄弟按时间序）。
// 遍历顺序独立于渲染，便于单独测试。
func Walk(roots []*Node, fn func(*Node)) {
	for _, root := range roots {
		walkNode(root, fn)
	}
}

func walkNode(n *Node, fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		walkNode(child, fn)
	}
}

// Count 返回森林中的节点总数
func Count(roots []*Node) int {
	total := 0
	Walk(roots, func(*Node) { total++ })
	return total
}

// CanReply 该层级是否还显示回复入口
func CanReply(depth int) bool {
	return depth < MaxReplyDepth
}

// Collapsed 该层级的回复是否默认折叠
func Collapsed(depth int) bool {
	return depth > CollapseDepth
}

// VisibleRoots 根评论的默认展示窗口：只保留最后 window 条（最新的根），
// showAll 为 true 时全部展示。嵌套回复不受窗口影响，随根一起展示。
func VisibleRoots(roots []*Node, window int, showAll bool) []*Node {
	if showAll || window <= 0 || len(roots) <= window {
		return roots
	}
	return roots[len(roots)-window:]
}
