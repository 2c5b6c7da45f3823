package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"inkwell/internal/config"
	"inkwell/internal/logging"
)

// 所有变更事件走同一个 Redis 频道，订阅侧按 collection/post 过滤
const changeChannel = "inkwell:changes"

// 事件涉及的集合名
const (
	CollectionComments = "comments"
	CollectionLikes    = "comment_likes"
)

// Event 一条数据变更通知。评论区收到任何相关事件后全量重拉重建，
// 不做增量合并，所以事件只需要告诉"哪篇文章的什么集合动了"。
type Event struct {
	Collection string `json:"collection"`
	PostID     uint   `json:"post_id"`
	Action     string `json:"action"` // insert / update / delete
}

// Notifier Redis pub/sub 变更通知通道。
// 未配置 Redis 时为 nil，所有方法对 nil 接收者都安全降级（事件直接丢弃）。
type Notifier struct {
	client *redis.Client
	log    *zap.Logger
}

// NewNotifier 连接 Redis；cfg 未启用时返回 (nil, nil)
func NewNotifier(cfg *config.RedisConfig) (*Notifier, error) {
	if !cfg.Enabled {
		logging.WithComponent("notifier").Info("Realtime notifier disabled: no redis_url")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logging.WithComponent("notifier").Info("Redis connection established")
	return &Notifier{client: client, log: logging.WithComponent("notifier")}, nil
}

// NewNotifierWithClient 直接用现成的客户端构造，测试用
func NewNotifierWithClient(client *redis.Client) *Notifier {
	return &Notifier{client: client, log: logging.WithComponent("notifier")}
}

// Publish 发布一条变更事件。通知只是触发重拉的信号，
// 发布失败只记日志，绝不影响触发它的那次写入。
func (n *Notifier) Publish(ctx context.Context, ev Event) {
	if n == nil || n.client == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		n.log.Warn("marshal change event failed", zap.Error(err))
		return
	}
	if err := n.client.Publish(ctx, changeChannel, payload).Err(); err != nil {
		n.log.Warn("publish change event failed", zap.Error(err))
	}
}

// Subscribe 订阅某篇文章（postID > 0）或全部（postID == 0）在某个集合上的变更。
// 返回事件通道和取消函数；取消后订阅被拆除，通道关闭，不会留下悬挂的处理协程。
func (n *Notifier) Subscribe(ctx context.Context, collection string, postID uint) (<-chan Event, func()) {
	events := make(chan Event, 8)
	if n == nil || n.client == nil {
		close(events)
		return events, func() {}
	}

	pubsub := n.client.Subscribe(ctx, changeChannel)

	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				n.log.Warn("bad change event payload", zap.Error(err))
				continue
			}
			if collection != "" && ev.Collection != collection {
				continue
			}
			if postID != 0 && ev.PostID != postID {
				continue
			}
			select {
			case events <- ev:
			default:
				// 订阅方反正是全量重拉，挤掉积压的事件没有损失
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return events, cancel
}

// Close 关闭 Redis 连接
func (n *Notifier) Close() error {
	if n == nil || n.client == nil {
		return nil
	}
	return n.client.Close()
}
