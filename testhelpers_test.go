//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/application"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/merchant"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/domain/promotion"
	promoEvents "github.com/Kilat-Pet-Delivery/service-promotion/internal/events"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/clock"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/database"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/kafka"
	pkgredis "github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/redis"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	Redis        *goredis.Client
	KafkaBrokers []string
	Cleanup      func()
}

// clickStack holds the wired-up click pipeline.
type clickStack struct {
	Analytics       *application.AnalyticsService
	Consumer        *promoEvents.ClickEventConsumer
	CleanupProducer func()
}

func startPostgres(t *testing.T, ctx context.Context) (testcontainers.Container, database.PostgresConfig) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_promotion",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return container, database.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_promotion",
		SSLMode:  "disable",
	}
}

func startRedis(t *testing.T, ctx context.Context) (testcontainers.Container, string) {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return container, net.JoinHostPort(host, port.Port())
}

// setupContainers starts PostgreSQL, Redis and Kafka, applies the SQL
// migrations and returns connected clients.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pgContainer, pgCfg := startPostgres(t, ctx)

	// Poll until the database accepts connections.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(pgCfg, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")
	require.NoError(t, database.RunMigrations(pgCfg.DatabaseURL(), "migrations", logger))

	redisContainer, redisAddr := startRedis(t, ctx)
	redisClient, err := pkgredis.NewClient(ctx, pkgredis.Config{Addr: redisAddr})
	require.NoError(t, err)

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, promoEvents.TopicPromotionEvents, promoEvents.TopicPromotionClicks)

	cleanup := func() {
		_ = redisClient.Close()
		for name, c := range map[string]testcontainers.Container{
			"Kafka": kafkaContainer, "Redis": redisContainer, "PostgreSQL": pgContainer,
		} {
			if err := c.Terminate(ctx); err != nil {
				t.Logf("failed to terminate %s container: %v", name, err)
			}
		}
	}

	return &testInfra{
		DB:           db,
		Redis:        redisClient,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupClickStack wires the analytics service to a real producer and consumer.
func setupClickStack(t *testing.T, db *gorm.DB, brokers []string) *clickStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	producer := kafka.NewProducer(brokers, logger)
	analytics := application.NewAnalyticsService(
		repository.NewGormClickRepository(db),
		repository.NewGormPromotionRepository(db),
		promoEvents.NewKafkaPublisher(producer),
		clock.System{},
		logger,
	)

	groupID := fmt.Sprintf("test-clicks-%s", uuid.New().String()[:8])
	consumer := promoEvents.NewClickEventConsumer(brokers, groupID, analytics, logger)

	return &clickStack{
		Analytics:       analytics,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedActivePromotion stores a merchant with an approved promotion running now.
func seedActivePromotion(t *testing.T, db *gorm.DB) (*merchant.Merchant, *promotion.Promotion) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	m, err := merchant.NewMerchant(uuid.New(), "Integration Coffee", "", "coffee", "", now)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormMerchantRepository(db).Save(ctx, m))

	p, err := promotion.NewPromotion(promotion.NewParams{
		MerchantID:    m.ID(),
		Title:         "Integration deal",
		DiscountType:  promotion.DiscountTypePercentage,
		DiscountValue: 15,
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(24 * time.Hour),
		CreatedBy:     uuid.New(),
	}, promotion.StateApproved, now)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormPromotionRepository(db).Save(ctx, p))
	return m, p
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
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
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
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
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
