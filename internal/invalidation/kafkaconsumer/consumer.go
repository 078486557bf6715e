// Package kafkaconsumer drains registry-update events and invalidates the
// affected cache entries.
package kafkaconsumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"naturatlas/internal/cache"
	"naturatlas/internal/cache/cellindex"
	"naturatlas/internal/cache/keys"
	"naturatlas/internal/invalidation"
	"naturatlas/internal/mapper/cellcover"
	"naturatlas/internal/model"
)

// DetailDropper evicts cached detail geometries for one area.
type DetailDropper interface {
	DropArea(prefix string)
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	cache  cache.Interface
	index  *cellindex.Index
	mapper *cellcover.Mapper
	detail DetailDropper
}

func New(cfg Config, logger *slog.Logger, c cache.Interface, ix *cellindex.Index, mapper *cellcover.Mapper, detail DetailDropper) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		cache:  c,
		index:  ix,
		mapper: mapper,
		detail: detail,
	}
}

// Start consumes invalidation events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil || c.index == nil || c.mapper == nil {
		return errors.New("kafkaconsumer: missing dependencies (cache/index/mapper)")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single registry-update message.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := invalidation.Parse(msg.Value)
	if err != nil {
		// a malformed event can never become valid; log and move on
		c.logger.Error("dropping malformed event",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return nil
	}

	if c.detail != nil {
		c.detail.DropArea(keys.DetailPrefix(ev.Source, ev.AreaID))
	}

	searchKeys, err := c.keysForEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("derive keys: %w", err)
	}
	if len(searchKeys) == 0 {
		c.logger.Debug("no cached searches affected", "source", ev.Source, "op", ev.Op)
		return nil
	}

	if err := c.cache.Del(ctx, searchKeys...); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}

	c.logger.Debug("invalidated keys",
		"source", ev.Source, "op", ev.Op, "area", ev.AreaID, "keys", len(searchKeys))
	return nil
}

// keysForEvent resolves which cached searches an event touches: by cell
// cover when the event carries a bbox, otherwise everything recorded for
// the source.
func (c *Consumer) keysForEvent(ctx context.Context, ev invalidation.Event) ([]string, error) {
	if ev.BBox != nil {
		cells, err := c.mapper.CellsForBBox(model.WGS84BBox{
			MinLon: ev.BBox.MinLon, MinLat: ev.BBox.MinLat,
			MaxLon: ev.BBox.MaxLon, MaxLat: ev.BBox.MaxLat,
		})
		if err != nil {
			return nil, fmt.Errorf("cells for bbox: %w", err)
		}
		cellKeys, err := c.index.KeysForCells(ctx, cells)
		if err != nil {
			return nil, err
		}
		// name searches on the source can also embed the area
		srcKeys, err := c.index.KeysForSource(ctx, ev.Source)
		if err != nil {
			return nil, err
		}
		return mergeUnique(cellKeys, srcKeys), nil
	}
	return c.index.KeysForSource(ctx, ev.Source)
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, ks := range [][]string{a, b} {
		for _, k := range ks {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
