package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"github.com/xor-shift/streamrng/bench"
	"github.com/xor-shift/streamrng/common"
	"github.com/xor-shift/streamrng/logger"
	"github.com/xor-shift/streamrng/service"
	"github.com/xor-shift/streamrng/store"
)

var (
	cfg common.Config
	svc *service.Service
)

func init() {
	var err error
	if cfg, err = common.LoadConfig(); err != nil {
		logger.Fatal(err, "loading config failed")
	}

	if err = logger.Configure(cfg.LogFormat, cfg.LogLevel); err != nil {
		logger.Fatal(err, "configuring the logger failed")
	}

	svc = service.New(cfg.MaxBlocks)
}

func fail(ctx iris.Context, err error) {
	if errors.Is(err, service.ErrBadRequest) {
		ctx.StatusCode(iris.StatusBadRequest)
	} else {
		logger.Error(err, "path", ctx.Path(), "request failed")
		ctx.StatusCode(iris.StatusInternalServerError)
	}
	_, _ = ctx.Text("%s", err)
}

func reply(ctx iris.Context, v interface{}, err error) {
	if err != nil {
		fail(ctx, err)
		return
	}
	_, _ = ctx.JSON(v)
}

// latestResults keeps the last result seen for every engine/mode/threads
// combination published on the exchange.
type latestResults struct {
	mu      sync.Mutex
	results map[string]bench.Result
}

func (l *latestResults) put(res bench.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.results[fmt.Sprintf("%s/%s/%d", res.Engine, res.Mode, res.Threads)] = res
}

func (l *latestResults) snapshot() map[string]bench.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]bench.Result, len(l.results))
	for k, v := range l.results {
		out[k] = v
	}
	return out
}

func startConsumer(latest *latestResults) (*common.AMQPConsumer, error) {
	consumer, err := common.NewAMQPConsumer(
		cfg.AMQPURL,
		cfg.AMQPExchange,
		"streamserver_queue",
		"streamserver_consumer",
		func(delivery amqp.Delivery) error {
			var res bench.Result
			if err := common.DecodeGob(delivery.Body, &res); err != nil {
				return err
			}

			logger.Debug("engine", res.Engine, "mode", string(res.Mode), "threads", res.Threads, "got a result")
			latest.put(res)
			return nil
		},
		func(err error) {
			logger.Warn(err, "dropping a delivery")
		})
	if err != nil {
		return nil, err
	}

	if err = consumer.Start(); err != nil {
		_ = consumer.Close()
		return nil, err
	}

	return consumer, nil
}

// newApp registers the stream endpoints, plus /runs when runs is not nil and
// /latest when latest is not nil.
func newApp(runs *store.Store, latest *latestResults) *iris.Application {
	app := iris.New()

	app.Get("/test", func(ctx iris.Context) {
		_, _ = ctx.Text("OK")
	})

	app.Get("/philox", func(ctx iris.Context) {
		req := service.DefaultPhiloxRequest()
		if err := service.DecodeQuery(ctx.URLParams(), &req); err != nil {
			fail(ctx, err)
			return
		}

		res, err := svc.Philox(req)
		reply(ctx, res, err)
	})

	app.Get("/pcg", func(ctx iris.Context) {
		req := service.DefaultPCGRequest()
		if err := service.DecodeQuery(ctx.URLParams(), &req); err != nil {
			fail(ctx, err)
			return
		}

		res, err := svc.PCG(req)
		reply(ctx, res, err)
	})

	app.Get("/xoshiro", func(ctx iris.Context) {
		req := service.DefaultXoshiroRequest()
		if err := service.DecodeQuery(ctx.URLParams(), &req); err != nil {
			fail(ctx, err)
			return
		}

		res, err := svc.Xoshiro(req)
		reply(ctx, res, err)
	})

	if runs != nil {
		app.Get("/runs", func(ctx iris.Context) {
			engine := ctx.URLParam("engine")
			if engine == "" {
				fail(ctx, errors.Wrap(service.ErrBadRequest, "engine is required"))
				return
			}

			reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), 10*time.Second)
			defer cancel()

			res, err := runs.Runs(reqCtx, engine)
			reply(ctx, res, err)
		})
	}

	if latest != nil {
		app.Get("/latest", func(ctx iris.Context) {
			_, _ = ctx.JSON(latest.snapshot())
		})
	}

	return app
}

func main() {
	var runs *store.Store
	if cfg.HasDB() {
		var err error
		if runs, err = store.Connect(context.Background(), cfg); err != nil {
			logger.Fatal(err, "opening the store failed")
		}
		defer runs.Close()
	}

	var latest *latestResults
	if cfg.HasAMQP() {
		latest = &latestResults{results: map[string]bench.Result{}}

		consumer, err := startConsumer(latest)
		if err != nil {
			logger.Fatal(err, "starting the amqp consumer failed")
		}
		defer consumer.Close()
	}

	app := newApp(runs, latest)

	logger.Info("port", cfg.ServerPort, "db", cfg.HasDB(), "amqp", cfg.HasAMQP(), "listening")

	if err := app.Listen(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil {
		logger.Error(err, "server stopped")
		os.Exit(1)
	}
}
