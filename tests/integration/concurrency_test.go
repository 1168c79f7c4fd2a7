package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bank-card-service/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(resp *http.Response, v any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func cardExpiry() time.Time {
	return time.Now().AddDate(3, 0, 0)
}

// TestConcurrentTransfers_ConserveTotal fires opposing transfers between the
// same pair of cards. Because the two card rows are always locked in
// canonical number order, the run must finish without deadlocking, and the
// sum of the two balances must come out exactly where it started.
func TestConcurrentTransfers_ConserveTotal(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.signIn(t, aliceEmail)

	concurrency := 50
	var wg sync.WaitGroup
	var failCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			from, to := aliceCardA, aliceCardB
			if idx%2 == 1 {
				from, to = to, from
			}
			resp := app.do(t, http.MethodPost, "/api/v1/user_cards/transfer", token, map[string]any{
				"from_number": from,
				"to_number":   to,
				"amount":      "10.00",
			})
			defer resp.Body.Close()
			_, _ = io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				failCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Zero(t, failCount.Load(), "every transfer had funds available and should have succeeded")

	balA := app.balanceOf(t, token, aliceCardA)
	balB := app.balanceOf(t, token, aliceCardB)
	t.Logf("Final balances: %s / %s", balA, balB)

	total := balA.Add(balB)
	assert.True(t, total.Equal(decimal.RequireFromString("2000.00")),
		"total moved, expected 2000.00 got %s", total)
	// 25 transfers each way of the same amount cancel out exactly.
	assert.True(t, balA.Equal(decimal.RequireFromString("1000.00")), "card A ended at %s", balA)
	assert.True(t, balB.Equal(decimal.RequireFromString("1000.00")), "card B ended at %s", balB)
}

// TestConcurrentTransfers_NeverOverdraw drains a card with more concurrent
// requests than its balance can cover. Row locking serializes the balance
// checks, so exactly the covered number of transfers succeed and the source
// never goes negative.
func TestConcurrentTransfers_NeverOverdraw(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.signIn(t, aliceEmail)

	// 20 competing withdrawals of 100.00 against a balance of 1000.00.
	concurrency := 20
	var wg sync.WaitGroup
	var successCount, insufficientCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp := app.do(t, http.MethodPost, "/api/v1/user_cards/transfer", token, map[string]any{
				"from_number": aliceCardA,
				"to_number":   aliceCardB,
				"amount":      "100.00",
			})
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)

			switch {
			case resp.StatusCode == http.StatusOK:
				successCount.Add(1)
			case resp.StatusCode == http.StatusBadRequest:
				assert.Contains(t, string(raw), "CARD_003")
				insufficientCount.Add(1)
			default:
				t.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
			}
		}()
	}
	wg.Wait()

	t.Logf("Overdraw run: %d succeeded, %d rejected", successCount.Load(), insufficientCount.Load())
	assert.Equal(t, int64(10), successCount.Load(), "only the covered transfers succeed")
	assert.Equal(t, int64(10), insufficientCount.Load())

	balA := app.balanceOf(t, token, aliceCardA)
	balB := app.balanceOf(t, token, aliceCardB)
	assert.True(t, balA.Equal(decimal.Zero), "source drained to exactly zero, got %s", balA)
	assert.True(t, balB.Equal(decimal.RequireFromString("2000.00")), "destination got everything, got %s", balB)
}

// TestConcurrentBlockApprovals verifies that racing approvals of the same
// block request leave the card blocked exactly once and all callers see
// success.
func TestConcurrentBlockApprovals(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	aliceToken := app.signIn(t, aliceEmail)
	adminToken := app.signIn(t, adminEmail)

	resp := app.do(t, http.MethodPost, "/api/v1/user_cards/block", aliceToken, map[string]any{"card_id": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data struct {
			RequestID int64 `json:"request_id"`
		} `json:"data"`
	}
	require.NoError(t, decodeBody(resp, &created))
	requestID := created.Data.RequestID

	concurrency := 20
	var wg sync.WaitGroup
	var successCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r := app.do(t, http.MethodPost, "/api/v1/user_cards/block-requests", adminToken,
				map[string]any{"request_id": requestID})
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)
			if r.StatusCode == http.StatusOK {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(concurrency), successCount.Load(), "approval is idempotent, every caller succeeds")

	ctx := context.Background()
	card, err := app.cardRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.CardStatusBlocked, card.Status)

	req, err := app.blockRepo.GetByID(ctx, requestID)
	require.NoError(t, err)
	assert.True(t, req.Processed)

	// The processed request is out of the pending queue.
	pending, err := app.blockRepo.ListPending(ctx, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// TestConcurrentTransfersAcrossManyCards spreads transfers over a ring of
// cards so distinct pairs lock concurrently. Total funds across the ring are
// conserved.
func TestConcurrentTransfersAcrossManyCards(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := app.signIn(t, aliceEmail)
	ctx := context.Background()

	// Give Alice a ring of extra cards, 100.00 each.
	alice, err := app.userRepo.GetByEmail(ctx, aliceEmail)
	require.NoError(t, err)

	ringSize := 6
	numbers := make([]string, 0, ringSize)
	for i := 0; i < ringSize; i++ {
		number := fmt.Sprintf("9%03d 0000 0000 %04d", i, i)
		numbers = append(numbers, number)
		require.NoError(t, app.cardRepo.Create(ctx, &domain.Card{
			Number:         number,
			UserID:         alice.ID,
			ExpirationDate: cardExpiry(),
			Status:         domain.CardStatusActive,
			Balance:        decimal.RequireFromString("100.00"),
		}))
	}

	var wg sync.WaitGroup
	rounds := 10
	for round := 0; round < rounds; round++ {
		for i := 0; i < ringSize; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				resp := app.do(t, http.MethodPost, "/api/v1/user_cards/transfer", token, map[string]any{
					"from_number": numbers[i],
					"to_number":   numbers[(i+1)%ringSize],
					"amount":      "1.00",
				})
				defer resp.Body.Close()
				_, _ = io.ReadAll(resp.Body)
			}(i)
		}
	}
	wg.Wait()

	total := decimal.Zero
	for _, number := range numbers {
		total = total.Add(app.balanceOf(t, token, number))
	}
	assert.True(t, total.Equal(decimal.RequireFromString("600.00")),
		"ring total must be conserved, got %s", total)
}
