//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/oponmeta/service-checkout/internal/adapter"
	"github.com/oponmeta/service-checkout/internal/application"
	"github.com/oponmeta/service-checkout/internal/config"
	"github.com/oponmeta/service-checkout/internal/events"
	"github.com/oponmeta/service-checkout/internal/platform/database"
	"github.com/oponmeta/service-checkout/internal/repository"
	"github.com/oponmeta/service-checkout/internal/repository/cartstore"
	"github.com/oponmeta/service-checkout/internal/saga"
)

const (
	checkoutTopic = "checkout.events"
	catalogTopic  = "catalog.events"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// checkoutStack holds wired-up checkout service components.
type checkoutStack struct {
	Carts           *application.CartService
	Checkout        *application.CheckoutService
	Coupons         *application.CouponService
	Catalog         *application.CatalogService
	CatalogConsumer *events.CatalogEventConsumer
	CouponRepo      *repository.GormCouponRepository
	CourseRepo      *repository.GormCourseRepository
	Cleanup         func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers, applies the SQL
// migrations and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_checkout",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbCfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_checkout",
		SSLMode:  "disable",
	}
	logger := zap.NewNop()

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(dbCfg, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(dbCfg.DatabaseURL(), "migrations", logger))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, checkoutTopic, catalogTopic)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupCheckoutStack wires the service the way cmd/server does, with mock
// gateways and a Redis cart store backed by miniredis.
func setupCheckoutStack(t *testing.T, db *gorm.DB, brokers []string) *checkoutStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	carts := cartstore.NewRedisStore(redisClient, time.Hour)

	rules, err := config.ParseRegionRules("NG,GH,KE:0.7")
	require.NoError(t, err)
	table, err := config.ParseGatewayTable("USD:stripe,NGN:paystack")
	require.NoError(t, err)
	policy := application.GatewayPolicy{Table: table, Default: "stripe"}

	courseRepo := repository.NewGormCourseRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	producer := events.NewProducer(brokers, logger)
	gateways := adapter.NewRegistry(
		adapter.NewMockGateway("stripe", logger),
		adapter.NewMockGateway("paystack", logger),
	)
	metrics := application.NewMetrics(prometheus.NewRegistry())

	sagaSvc := saga.NewCheckoutSagaService(paymentRepo, couponRepo, carts, producer, checkoutTopic, logger)
	catalogSvc := application.NewCatalogService(courseRepo, logger)

	groupID := fmt.Sprintf("test-checkout-%s", uuid.New().String()[:8])
	consumer := events.NewCatalogEventConsumer(brokers, groupID, catalogTopic, catalogSvc, logger)

	return &checkoutStack{
		Carts:           application.NewCartService(carts, courseRepo, couponRepo, rules, policy, metrics, logger),
		Checkout:        application.NewCheckoutService(carts, couponRepo, paymentRepo, gateways, policy, sagaSvc, metrics, logger),
		Coupons:         application.NewCouponService(couponRepo, logger),
		Catalog:         catalogSvc,
		CatalogConsumer: consumer,
		CouponRepo:      couponRepo,
		CourseRepo:      courseRepo,
		Cleanup: func() {
			_ = consumer.Close()
			_ = producer.Close()
			_ = redisClient.Close()
		},
	}
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType, subject string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := events.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := events.NewCloudEvent(source, eventType, subject, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the
// expected type about subject.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType, subject string, timeout time.Duration) events.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := events.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && ce.Subject == subject {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
