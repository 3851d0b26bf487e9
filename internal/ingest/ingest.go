package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camerpulse/sentinel/internal/signal"
	"github.com/camerpulse/sentinel/pkg/kafka"
	"github.com/camerpulse/sentinel/pkg/logging"
)

// DefaultTopic is the stream of raw social posts to classify.
const DefaultTopic = "social.posts"

// Analysis is the subset of the analyzer the ingester drives.
type Analysis interface {
	Analyze(ctx context.Context, req signal.AnalyzeRequest) (signal.Result, error)
}

// post is the wire shape of one social media item on the ingest topic.
type post struct {
	ID         string             `json:"id"`
	Platform   string             `json:"platform"`
	Author     string             `json:"author"`
	Content    string             `json:"content"`
	Engagement map[string]float64 `json:"engagement"`
}

// Ingester consumes social posts from Kafka and feeds them through the
// analyzer. Unparseable or empty posts are dropped with a log line; they
// must not block the partition.
type Ingester struct {
	consumer *kafka.Consumer
	analysis Analysis
	logger   logging.Logger
	topic    string
}

func New(consumer *kafka.Consumer, analysis Analysis, topic string, logger logging.Logger) *Ingester {
	if topic == "" {
		topic = DefaultTopic
	}
	ing := &Ingester{
		consumer: consumer,
		analysis: analysis,
		logger:   logger,
		topic:    topic,
	}
	consumer.AddHandler(topic, ing.handleMessage)
	return ing
}

// Run polls until the context is cancelled.
func (i *Ingester) Run(ctx context.Context) error {
	i.logger.WithField("topic", i.topic).Info("Starting social post ingestion")
	if err := i.consumer.Start(ctx); err != nil {
		return fmt.Errorf("consume %s: %w", i.topic, err)
	}
	return nil
}

func (i *Ingester) handleMessage(ctx context.Context, msg kafka.Message) error {
	req, err := decodePost(msg)
	if err != nil {
		i.logger.WithError(err).WithFields(logging.Fields{
			"topic":     msg.Topic,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Warn("Dropping malformed social post")
		return nil
	}

	if _, err := i.analysis.Analyze(ctx, req); err != nil {
		// Empty content is a producer defect, not a reason to stall the
		// partition.
		i.logger.WithError(err).WithField("content_id", req.ContentID).
			Warn("Dropping unanalyzable social post")
	}
	return nil
}

func decodePost(msg kafka.Message) (signal.AnalyzeRequest, error) {
	var p post
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		return signal.AnalyzeRequest{}, fmt.Errorf("decode post: %w", err)
	}
	if strings.TrimSpace(p.Content) == "" {
		return signal.AnalyzeRequest{}, fmt.Errorf("post %q has no content", p.ID)
	}
	if p.ID == "" {
		p.ID = string(msg.Key)
	}
	return signal.AnalyzeRequest{
		Content:      p.Content,
		Platform:     p.Platform,
		ContentID:    p.ID,
		AuthorHandle: p.Author,
		Engagement:   p.Engagement,
	}, nil
}
