// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/cashback-engine/backend/config"
	"github.com/cashback-engine/backend/internal/infra/dependency"
	"github.com/cashback-engine/backend/internal/integration/notification"
	"github.com/cashback-engine/backend/internal/integration/persistence/model"
	"github.com/cashback-engine/backend/test/integration/mock"
)

const testJWTSecret = "test-jwt-secret-key-for-testing-purposes"

// defaultNow is the instant scenarios start at unless they pin another one.
var defaultNow = time.Date(2024, 6, 16, 12, 0, 0, 0, time.UTC)

var suiteOnce sync.Once
var suite *suiteState

// suiteState holds the shared server and mocks. The server starts once; every
// scenario resets the state it left behind.
type suiteState struct {
	server    *httptest.Server
	db        *mock.Db
	redis     *redis.Client
	clock     *mock.Clock
	directory *mock.Directory
	sender    *notification.MockNotificationSender
	worker    *notification.Worker
}

func startSuite() *suiteState {
	suiteOnce.Do(func() {
		gin.SetMode(gin.TestMode)

		s := &suiteState{
			db:        mock.NewDb(&model.SaleModel{}, &model.CampaignModel{}, &model.NotificationQueueModel{}),
			redis:     mock.NewRedis(),
			clock:     mock.NewClock(defaultNow),
			directory: mock.NewDirectory(),
			sender:    notification.NewMockNotificationSender(),
		}

		cfg := config.Load()
		cfg.Server.Environment = "test"
		cfg.JWT.Secret = testJWTSecret
		cfg.Directory.BaseURL = s.directory.URL()

		injector, err := dependency.NewInjector(cfg, s.db.DbConn, s.redis, dependency.Overrides{
			Clock:  s.clock,
			Sender: s.sender,
		})
		if err != nil {
			panic(fmt.Sprintf("failed to wire test dependencies: %v", err))
		}

		s.worker = injector.NotificationWorker
		s.server = httptest.NewServer(injector.Router.Setup("test"))
		suite = s
	})
	return suite
}

// testContext holds per-scenario state on top of the shared suite.
type testContext struct {
	*suiteState

	client       *http.Client
	headers      map[string]string
	token        string
	response     *http.Response
	responseBody []byte
	saved        map[string]string
}

func (t *testContext) before() error {
	t.client = &http.Client{Timeout: 10 * time.Second}
	t.headers = make(map[string]string)
	t.token = ""
	t.response = nil
	t.responseBody = nil
	t.saved = make(map[string]string)

	t.clock.Set(defaultNow)
	t.directory.Reset()
	t.sender.Reset()
	if err := t.db.Reset(); err != nil {
		return err
	}
	return mock.ClearRedis(t.redis)
}

// serviceToken signs a short-lived service JWT the way upstream callers do.
func serviceToken(service string) string {
	claims := jwt.MapClaims{
		"service": service,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		panic(fmt.Sprintf("failed to sign service token: %v", err))
	}
	return signed
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		startSuite()
	})
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	test := &testContext{suiteState: startSuite()}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, test.before()
	})

	// Background steps
	ctx.Given(`^the API server is running$`, test.theAPIServerIsRunning)
	ctx.Given(`^I am authenticated as service "([^"]*)"$`, test.iAmAuthenticatedAsService)
	ctx.Given(`^the current time is "([^"]*)"$`, test.theCurrentTimeIs)
	ctx.Given(`^the header contains the key "([^"]*)" with "([^"]*)"$`, test.theHeaderContainsTheKeyWith)

	// Directory setup steps
	ctx.Given(`^a customer exists with CPF "([^"]*)" named "([^"]*)" with email "([^"]*)"$`, test.aCustomerExists)
	ctx.Given(`^the customer "([^"]*)" is banned$`, test.theCustomerIsBanned)

	// Campaign setup steps
	ctx.Given(`^the following campaign is active:$`, test.theFollowingCampaignIsActive)

	// Ledger setup steps
	ctx.Given(`^an available cashback record "([^"]*)" exists for "([^"]*)" with (\d+) centavos expiring at "([^"]*)"$`, test.anAvailableCashbackRecordExists)

	// Request steps
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)"$`, test.iSendARequestTo)
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, test.iSendARequestToWithBody)
	ctx.When(`^I store the response field "([^"]*)" as "([^"]*)"$`, test.iStoreTheResponseFieldAs)

	// Response assertion steps
	ctx.Then(`^the response status should be (\d+)$`, test.theResponseStatusShouldBe)
	ctx.Then(`^the response should contain "([^"]*)"$`, test.theResponseShouldContain)
	ctx.Then(`^the response field "([^"]*)" should be "([^"]*)"$`, test.theResponseFieldShouldBe)
	ctx.Then(`^the response field "([^"]*)" should exist$`, test.theResponseFieldShouldExist)

	// Database assertion steps
	ctx.Then(`^the db should contain (\d+) rows in the "([^"]*)" table$`, test.theDbShouldContainRowsInTheTable)

	// Notification assertion steps
	ctx.Then(`^(\d+) notifications? should be queued$`, test.notificationsShouldBeQueued)
	ctx.Then(`^the notification worker delivers (\d+) notifications?$`, test.theNotificationWorkerDelivers)
}
