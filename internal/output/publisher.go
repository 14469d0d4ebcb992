package output

import (
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	TopicExtractions     = "order_extractions"
	TopicCanonicalOrders = "canonical_orders"
)

// Publisher sends an envelope and each of its orders to a destination,
// keyed by run id where the destination supports keys.
type Publisher struct {
	dest   OutputDestination
	prefix string
}

func NewPublisher(dest OutputDestination, topicPrefix string) *Publisher {
	return &Publisher{dest: dest, prefix: topicPrefix}
}

func (p *Publisher) Topic(name string) string {
	return p.prefix + name
}

// Publish writes the envelope first, then one message per order.
func (p *Publisher) Publish(res models.ExtractionResult) error {
	envelope, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding envelope %s: %w", res.RunID, err)
	}
	if err := p.write(p.Topic(TopicExtractions), res.RunID, envelope); err != nil {
		return err
	}

	for _, o := range res.Data.Orders {
		msg, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("encoding order %s: %w", o.ID, err)
		}
		if err := p.write(p.Topic(TopicCanonicalOrders), res.RunID, msg); err != nil {
			return err
		}
	}
	log.Info().Str("run_id", res.RunID).Str("source", res.Data.Source).
		Msgf("published envelope with %d orders", len(res.Data.Orders))
	return nil
}

func (p *Publisher) write(topic, key string, msg []byte) error {
	var err error
	if kd, ok := p.dest.(KeyedDestination); ok && key != "" {
		err = kd.WriteKeyedMessage(topic, key, msg)
	} else {
		err = p.dest.WriteMessage(topic, msg)
	}
	if err != nil {
		return fmt.Errorf("writing to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.dest.Close()
}
