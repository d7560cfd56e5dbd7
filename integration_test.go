package main

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"bank-ledger/internal/config"
	"bank-ledger/internal/server"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type IntegrationTestSuite struct {
	suite.Suite
	postgresContainer *tcpostgres.PostgresContainer
	serverInstance    *server.Server
	serverPort        string
	baseURL           string
	client            *http.Client
	dbConnStr         string
}

func (suite *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("bank_ledger"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %s", err)
	}
	suite.postgresContainer = postgresContainer

	suite.dbConnStr, err = postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		suite.T().Fatalf("Failed to get connection string: %s", err)
	}

	if err := suite.runMigrations(); err != nil {
		suite.T().Fatalf("Failed to run migrations: %s", err)
	}

	if err := suite.startApplicationServer(); err != nil {
		suite.T().Fatalf("Failed to start application server: %s", err)
	}

	suite.client = &http.Client{
		Timeout: 30 * time.Second,
	}
}

func (suite *IntegrationTestSuite) runMigrations() error {
	db, err := sql.Open("postgres", suite.dbConnStr)
	if err != nil {
		return err
	}
	defer db.Close()

	migrationFiles, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	sort.Slice(migrationFiles, func(i, j int) bool {
		return migrationFiles[i].Name() < migrationFiles[j].Name()
	})

	for _, file := range migrationFiles {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		migrationSQL, err := migrationsFS.ReadFile(filepath.Join("migrations", file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}

		if _, err := db.Exec(string(migrationSQL)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (suite *IntegrationTestSuite) startApplicationServer() error {
	ctx := context.Background()

	host, err := suite.postgresContainer.Host(ctx)
	if err != nil {
		return err
	}

	mappedPort, err := suite.postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		return err
	}

	cfg := &config.Config{
		ServerPort: "0", // Let OS choose a free port
		DBHost:     host,
		DBPort:     mappedPort.Port(),
		DBUser:     "postgres",
		DBPassword: "password",
		DBName:     "bank_ledger",
		DBSSLMode:  "disable",
	}

	serverInstance, port, err := server.StartServer(cfg)
	if err != nil {
		return err
	}

	suite.serverInstance = serverInstance
	suite.serverPort = port
	suite.baseURL = "http://localhost:" + port

	return suite.waitForServerReady()
}

func (suite *IntegrationTestSuite) waitForServerReady() error {
	timeout := 30 * time.Second
	start := time.Now()

	for time.Since(start) < timeout {
		resp, err := http.Get(suite.baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if suite.serverInstance != nil {
		suite.serverInstance.Stop(ctx)
	}

	if suite.postgresContainer != nil {
		suite.postgresContainer.Terminate(ctx)
	}
}

// Request helpers

func (suite *IntegrationTestSuite) postJSON(path string, payload interface{}) (int, map[string]interface{}) {
	body, err := json.Marshal(payload)
	suite.Require().NoError(err)

	resp, err := suite.client.Post(suite.baseURL+path, "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)
	defer resp.Body.Close()

	return resp.StatusCode, suite.parseBody(resp.Body)
}

func (suite *IntegrationTestSuite) getJSON(path string) (int, map[string]interface{}) {
	resp, err := suite.client.Get(suite.baseURL + path)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	return resp.StatusCode, suite.parseBody(resp.Body)
}

func (suite *IntegrationTestSuite) parseBody(r io.Reader) map[string]interface{} {
	raw, err := io.ReadAll(r)
	suite.Require().NoError(err)

	var parsed map[string]interface{}
	if len(raw) > 0 {
		suite.Require().NoError(json.Unmarshal(raw, &parsed), "unparseable response: %s", raw)
	}
	return parsed
}

func data(response map[string]interface{}) map[string]interface{} {
	d, _ := response["data"].(map[string]interface{})
	return d
}

func errCode(response map[string]interface{}) string {
	e, _ := response["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func (suite *IntegrationTestSuite) registerUser(name, email string) string {
	status, resp := suite.postJSON("/users", map[string]string{"name": name, "email": email})
	suite.Require().Equal(http.StatusCreated, status, "register user: %v", resp)
	return data(resp)["id"].(string)
}

func (suite *IntegrationTestSuite) createAccount(ownerID, category, minimumBalance string) string {
	payload := map[string]string{"owner_id": ownerID, "category": category}
	if minimumBalance != "" {
		payload["minimum_balance"] = minimumBalance
	}
	status, resp := suite.postJSON("/accounts", payload)
	suite.Require().Equal(http.StatusCreated, status, "create account: %v", resp)
	return data(resp)["account_number"].(string)
}

func (suite *IntegrationTestSuite) accountBalance(number string) decimal.Decimal {
	status, resp := suite.getJSON("/accounts/" + number)
	suite.Require().Equal(http.StatusOK, status, "get account: %v", resp)

	balance, err := decimal.NewFromString(data(resp)["balance"].(string))
	suite.Require().NoError(err)
	return balance
}

func (suite *IntegrationTestSuite) deposit(number, amount string) (int, map[string]interface{}) {
	return suite.postJSON("/accounts/"+number+"/deposits", map[string]string{"amount": amount})
}

func (suite *IntegrationTestSuite) withdraw(number, amount string) (int, map[string]interface{}) {
	return suite.postJSON("/accounts/"+number+"/withdrawals", map[string]string{"amount": amount})
}

func (suite *IntegrationTestSuite) transfer(source, target, amount string, idempotencyKey ...string) (int, map[string]interface{}) {
	payload := map[string]string{
		"source_account": source,
		"target_account": target,
		"amount":         amount,
	}
	if len(idempotencyKey) > 0 && idempotencyKey[0] != "" {
		payload["idempotency_key"] = idempotencyKey[0]
	}
	return suite.postJSON("/transfers", payload)
}

func (suite *IntegrationTestSuite) assertDecimalEqual(expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	expectedDec, err := decimal.NewFromString(expected)
	suite.Require().NoError(err)
	assert.True(suite.T(), expectedDec.Equal(actual),
		"decimal values not equal: expected %s, got %s", expected, actual)
}

// Tests

func (suite *IntegrationTestSuite) TestAccountLifecycle() {
	ownerID := suite.registerUser("Aisha", "aisha.lifecycle@example.com")
	number := suite.createAccount(ownerID, "wadiah", "")

	status, resp := suite.getJSON("/accounts/" + number)
	suite.Equal(http.StatusOK, status)
	suite.Equal("active", data(resp)["status"])
	suite.Equal(ownerID, data(resp)["owner_id"])
	suite.assertDecimalEqual("0", suite.accountBalance(number))

	status, resp = suite.getJSON("/accounts/9999999999999999")
	suite.Equal(http.StatusNotFound, status)
	suite.Equal("not_found", errCode(resp))
}

func (suite *IntegrationTestSuite) TestCreateAccountRequiresOwner() {
	status, resp := suite.postJSON("/accounts", map[string]string{
		"owner_id": uuid.New().String(),
		"category": "wadiah",
	})
	suite.Equal(http.StatusNotFound, status)
	suite.Equal("not_found", errCode(resp))
}

func (suite *IntegrationTestSuite) TestDepositAndWithdrawal() {
	ownerID := suite.registerUser("Budi", "budi.movement@example.com")
	number := suite.createAccount(ownerID, "mudharabah", "")

	status, resp := suite.deposit(number, "500000")
	suite.Require().Equal(http.StatusCreated, status, "deposit: %v", resp)
	suite.Equal("success", data(resp)["status"])

	balanceAfter, err := decimal.NewFromString(data(resp)["balance_after"].(string))
	suite.Require().NoError(err)
	suite.assertDecimalEqual("500000", balanceAfter)

	// Overdraw attempt fails and leaves the balance untouched.
	status, resp = suite.withdraw(number, "600000")
	suite.Equal(http.StatusUnprocessableEntity, status)
	suite.Equal("insufficient_balance", errCode(resp))
	suite.assertDecimalEqual("500000", suite.accountBalance(number))

	status, resp = suite.withdraw(number, "100000")
	suite.Require().Equal(http.StatusCreated, status, "withdraw: %v", resp)
	suite.assertDecimalEqual("400000", suite.accountBalance(number))
}

func (suite *IntegrationTestSuite) TestDepositRejectsNonPositiveAmount() {
	ownerID := suite.registerUser("Citra", "citra.amounts@example.com")
	number := suite.createAccount(ownerID, "wadiah", "")

	for _, amount := range []string{"0", "-10"} {
		status, resp := suite.deposit(number, amount)
		suite.Equal(http.StatusBadRequest, status)
		suite.Equal("invalid_amount", errCode(resp))
	}
}

func (suite *IntegrationTestSuite) TestMinimumBalanceFloor() {
	ownerID := suite.registerUser("Dewi", "dewi.floor@example.com")
	number := suite.createAccount(ownerID, "wadiah", "100000")

	status, _ := suite.deposit(number, "150000")
	suite.Require().Equal(http.StatusCreated, status)

	// Would land below the floor.
	status, resp := suite.withdraw(number, "60000")
	suite.Equal(http.StatusUnprocessableEntity, status)
	suite.Equal("insufficient_balance", errCode(resp))

	// Down to exactly the floor is fine.
	status, _ = suite.withdraw(number, "50000")
	suite.Equal(http.StatusCreated, status)
	suite.assertDecimalEqual("100000", suite.accountBalance(number))
}

func (suite *IntegrationTestSuite) TestTransferMovesFundsAndRecordsOnce() {
	ownerID := suite.registerUser("Eko", "eko.transfer@example.com")
	source := suite.createAccount(ownerID, "wadiah", "")
	target := suite.createAccount(ownerID, "musyarakah", "")

	status, _ := suite.deposit(source, "500000")
	suite.Require().Equal(http.StatusCreated, status)

	status, resp := suite.transfer(source, target, "100000")
	suite.Require().Equal(http.StatusCreated, status, "transfer: %v", resp)
	suite.Equal("success", data(resp)["status"])

	balanceAfter, err := decimal.NewFromString(data(resp)["balance_after"].(string))
	suite.Require().NoError(err)
	suite.assertDecimalEqual("400000", balanceAfter)

	// Conservation of funds.
	suite.assertDecimalEqual("400000", suite.accountBalance(source))
	suite.assertDecimalEqual("100000", suite.accountBalance(target))

	// Exactly one success transfer record on the target's statement.
	status, listResp := suite.getJSON("/accounts/" + target + "/transactions")
	suite.Require().Equal(http.StatusOK, status)
	records, ok := listResp["data"].([]interface{})
	suite.Require().True(ok, "statement: %v", listResp)

	transfers := 0
	for _, raw := range records {
		record := raw.(map[string]interface{})
		if record["type"] == "transfer" && record["status"] == "success" {
			transfers++
		}
	}
	suite.Equal(1, transfers)

	// The record is retrievable by id.
	txID := data(resp)["transaction_id"].(string)
	status, txResp := suite.getJSON("/transactions/" + txID)
	suite.Equal(http.StatusOK, status)
	suite.Equal("transfer", data(txResp)["type"])
}

func (suite *IntegrationTestSuite) TestTransferToSameAccountFails() {
	ownerID := suite.registerUser("Fajar", "fajar.self@example.com")
	number := suite.createAccount(ownerID, "wadiah", "")

	status, _ := suite.deposit(number, "1000")
	suite.Require().Equal(http.StatusCreated, status)

	status, resp := suite.transfer(number, number, "100")
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("invalid_transfer", errCode(resp))
	suite.assertDecimalEqual("1000", suite.accountBalance(number))
}

func (suite *IntegrationTestSuite) TestTransferInsufficientBalance() {
	ownerID := suite.registerUser("Gita", "gita.insufficient@example.com")
	source := suite.createAccount(ownerID, "wadiah", "")
	target := suite.createAccount(ownerID, "wadiah", "")

	status, _ := suite.deposit(source, "50")
	suite.Require().Equal(http.StatusCreated, status)

	status, resp := suite.transfer(source, target, "100")
	suite.Equal(http.StatusUnprocessableEntity, status)
	suite.Equal("insufficient_balance", errCode(resp))
	suite.assertDecimalEqual("50", suite.accountBalance(source))
	suite.assertDecimalEqual("0", suite.accountBalance(target))
}

func (suite *IntegrationTestSuite) TestClosedAccountRefusesMovement() {
	ownerID := suite.registerUser("Hana", "hana.closed@example.com")
	source := suite.createAccount(ownerID, "wadiah", "")
	target := suite.createAccount(ownerID, "wadiah", "")

	status, _ := suite.deposit(source, "1000")
	suite.Require().Equal(http.StatusCreated, status)

	status, resp := suite.postJSON("/accounts/"+target+"/close", nil)
	suite.Require().Equal(http.StatusOK, status, "close: %v", resp)
	suite.Equal("closed", data(resp)["status"])

	status, resp = suite.transfer(source, target, "100")
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("account_inactive", errCode(resp))
	suite.assertDecimalEqual("1000", suite.accountBalance(source))
}

func (suite *IntegrationTestSuite) TestIdempotentTransferReplay() {
	ownerID := suite.registerUser("Indra", "indra.idempotent@example.com")
	source := suite.createAccount(ownerID, "wadiah", "")
	target := suite.createAccount(ownerID, "wadiah", "")

	status, _ := suite.deposit(source, "1000")
	suite.Require().Equal(http.StatusCreated, status)

	key := uuid.New().String()

	status, first := suite.transfer(source, target, "100", key)
	suite.Require().Equal(http.StatusCreated, status, "first transfer: %v", first)

	status, second := suite.transfer(source, target, "100", key)
	suite.Require().Equal(http.StatusCreated, status, "replay: %v", second)

	suite.Equal(data(first)["transaction_id"], data(second)["transaction_id"])

	// Money moved exactly once.
	suite.assertDecimalEqual("900", suite.accountBalance(source))
	suite.assertDecimalEqual("100", suite.accountBalance(target))
}

// Opposite-direction transfers of equal amounts run concurrently must net to
// zero with no deadlock and no lost update.
func (suite *IntegrationTestSuite) TestConcurrentOppositeTransfers() {
	ownerID := suite.registerUser("Joko", "joko.concurrent@example.com")
	accountA := suite.createAccount(ownerID, "wadiah", "")
	accountB := suite.createAccount(ownerID, "wadiah", "")

	status, _ := suite.deposit(accountA, "100000")
	suite.Require().Equal(http.StatusCreated, status)
	status, _ = suite.deposit(accountB, "100000")
	suite.Require().Equal(http.StatusCreated, status)

	const rounds = 10
	var wg sync.WaitGroup
	wg.Add(2 * rounds)

	for i := 0; i < rounds; i++ {
		go func() {
			defer wg.Done()
			status, resp := suite.transfer(accountA, accountB, "1000")
			assert.Equal(suite.T(), http.StatusCreated, status, "A->B transfer: %v", resp)
		}()
		go func() {
			defer wg.Done()
			status, resp := suite.transfer(accountB, accountA, "1000")
			assert.Equal(suite.T(), http.StatusCreated, status, "B->A transfer: %v", resp)
		}()
	}

	wg.Wait()

	suite.assertDecimalEqual("100000", suite.accountBalance(accountA))
	suite.assertDecimalEqual("100000", suite.accountBalance(accountB))
}

func (suite *IntegrationTestSuite) TestHealthEndpoint() {
	status, resp := suite.getJSON("/health")
	suite.Equal(http.StatusOK, status)
	suite.Equal("healthy", resp["status"])
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}
