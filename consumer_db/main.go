package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/streadway/amqp"
	"github.com/xor-shift/streamrng/bench"
	"github.com/xor-shift/streamrng/common"
	"github.com/xor-shift/streamrng/logger"
	"github.com/xor-shift/streamrng/store"
)

var cfg common.Config

func init() {
	var err error
	if cfg, err = common.LoadConfig(); err != nil {
		logger.Fatal(err, "loading config failed")
	}

	if err = logger.Configure(cfg.LogFormat, cfg.LogLevel); err != nil {
		logger.Fatal(err, "configuring the logger failed")
	}

	if !cfg.HasDB() || !cfg.HasAMQP() {
		logger.Fatal("consumer_db needs both DB_* and AMQP_URL to be set")
	}
}

func main() {
	s, err := store.Connect(context.Background(), cfg)
	if err != nil {
		logger.Fatal(err, "opening the store failed")
	}
	defer s.Close()

	processResult := func(res bench.Result) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.SaveRuns(ctx, []bench.Result{res})
	}

	consumer, err := common.NewAMQPConsumer(
		cfg.AMQPURL,
		cfg.AMQPExchange,
		"bench_results_queue_db",
		"bench_results_consumer_db",
		func(delivery amqp.Delivery) error {
			var res bench.Result
			if err := common.DecodeGob(delivery.Body, &res); err != nil {
				return err
			}

			if err := processResult(res); err != nil {
				return err
			}

			logger.Info("engine", res.Engine, "mode", string(res.Mode), "threads", res.Threads, "stored a result")
			return nil
		},
		func(err error) {
			logger.Error(err, "failed to store a result")
		})
	if err != nil {
		logger.Fatal(err, "creating the consumer failed")
	}
	defer consumer.Close()

	if err = consumer.Start(); err != nil {
		logger.Fatal(err, "starting the consumer failed")
	}

	logger.Info("exchange", cfg.AMQPExchange, "consuming")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig

	if err = consumer.Stop(); err != nil {
		logger.Warn(err, "cancelling the consumer")
	}
	consumer.Wait()
}
