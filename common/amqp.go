package common

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

func declareFanout(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
}

// EncodeGob is the wire format of every message on the exchanges.
func EncodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errors.Wrap(err, "gob encoding a message")
	}
	return buf.Bytes(), nil
}

func DecodeGob(body []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(v); err != nil {
		return errors.Wrap(err, "gob decoding a message")
	}
	return nil
}

type AMQPPublisher struct {
	amqpConn *amqp.Connection
	amqpChan *amqp.Channel

	exchange string
	mu       sync.Mutex
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	var err error
	publisher := &AMQPPublisher{exchange: exchange}

	if publisher.amqpConn, err = amqp.Dial(url); err != nil {
		return nil, errors.Wrap(err, "dialing amqp")
	}

	if publisher.amqpChan, err = publisher.amqpConn.Channel(); err != nil {
		_ = publisher.amqpConn.Close()
		return nil, errors.Wrap(err, "opening an amqp channel")
	}

	if err = declareFanout(publisher.amqpChan, exchange); err != nil {
		_ = publisher.amqpChan.Close()
		_ = publisher.amqpConn.Close()
		return nil, errors.Wrapf(err, "declaring exchange %s", exchange)
	}

	return publisher, nil
}

// Publish gob-encodes v and sends it to the exchange. Channels are not safe
// for concurrent publishing, hence the lock.
func (p *AMQPPublisher) Publish(v interface{}) error {
	body, err := EncodeGob(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.amqpChan.Publish(
		p.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/octet-stream",
			Body:        body,
		}); err != nil {
		return errors.Wrapf(err, "publishing to %s", p.exchange)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.amqpChan.Close(); err != nil {
		return err
	}

	return p.amqpConn.Close()
}

type AMQPConsumer struct {
	amqpConn  *amqp.Connection
	amqpChan  *amqp.Channel
	amqpQueue amqp.Queue

	queueName    string
	consumerName string

	amqpConsumer <-chan amqp.Delivery
	callback     func(amqp.Delivery) error
	onError      func(error)
	wg           sync.WaitGroup
}

// NewAMQPConsumer binds an exclusive queue to the exchange. Errors returned by
// callback are handed to onError, which may be nil.
func NewAMQPConsumer(url, exchange, queueName, consumerName string, callback func(amqp.Delivery) error, onError func(error)) (*AMQPConsumer, error) {
	var err error
	consumer := AMQPConsumer{
		callback: callback,
		onError:  onError,

		queueName:    queueName,
		consumerName: consumerName,
	}

	if consumer.amqpConn, err = amqp.Dial(url); err != nil {
		return nil, errors.Wrap(err, "dialing amqp")
	}

	if consumer.amqpChan, err = consumer.amqpConn.Channel(); err != nil {
		_ = consumer.amqpConn.Close()
		return nil, errors.Wrap(err, "opening an amqp channel")
	}

	if err = declareFanout(consumer.amqpChan, exchange); err != nil {
		_ = consumer.amqpChan.Close()
		_ = consumer.amqpConn.Close()
		return nil, errors.Wrapf(err, "declaring exchange %s", exchange)
	}

	if consumer.amqpQueue, err = consumer.amqpChan.QueueDeclare(
		queueName, // name
		false,     // durable
		false,     // delete when unused
		true,      // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		_ = consumer.amqpChan.Close()
		_ = consumer.amqpConn.Close()
		return nil, errors.Wrapf(err, "declaring queue %s", queueName)
	}

	if err = consumer.amqpChan.QueueBind(
		consumer.amqpQueue.Name, // queue name
		"",                      // routing key
		exchange,                // exchange
		false,
		nil,
	); err != nil {
		_ = consumer.amqpChan.Close()
		_ = consumer.amqpConn.Close()
		return nil, errors.Wrapf(err, "binding queue %s", queueName)
	}

	return &consumer, nil
}

func (c *AMQPConsumer) Start() error {
	var err error

	if c.amqpConsumer, err = c.amqpChan.Consume(
		c.amqpQueue.Name, // queue
		c.consumerName,   // consumer
		true,             // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	); err != nil {
		return errors.Wrap(err, "starting the consumer")
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		for delivery := range c.amqpConsumer {
			if err := c.callback(delivery); err != nil && c.onError != nil {
				c.onError(err)
			}
		}
	}()

	return nil
}

func (c *AMQPConsumer) Stop() error {
	return c.amqpChan.Cancel(c.consumerName, false)
}

func (c *AMQPConsumer) Wait() {
	c.wg.Wait()
}

func (c *AMQPConsumer) Close() error {
	var err error

	if err = c.amqpChan.Close(); err != nil {
		return err
	}

	if err = c.amqpConn.Close(); err != nil {
		return err
	}

	return nil
}
