package kafka

import (
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// EnsureTopicsExist creates any of the given topics that are missing. The
// broker list only needs one reachable member; creation itself goes through
// the cluster controller. A topic that fails to create is logged and skipped
// so the remaining topics still get their chance.
func EnsureTopicsExist(brokers []string, topics []string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("resolve controller: %w", err)
	}

	ctrl, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer ctrl.Close()

	for _, topic := range topics {
		err := ctrl.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		switch {
		case err == nil:
			log.Printf("Created topic %s", topic)
		case errors.Is(err, kafka.TopicAlreadyExists):
			log.Printf("Topic %s already exists", topic)
		default:
			log.Printf("Creating topic %s failed: %v", topic, err)
		}
	}

	// Topic metadata propagates to the rest of the cluster asynchronously.
	time.Sleep(time.Second)
	return nil
}
