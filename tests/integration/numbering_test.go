package integration

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/invoicer/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceNumbering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	srv := NewTestServer(t, NewSharedTestDB(t))

	t.Run("concurrent creates never share a number", func(t *testing.T) {
		seller := srv.Register(t, "ona")
		clientID := seller.CreateClient(t, "initech")

		body, err := json.Marshal(InvoiceBody(clientID, today(), [2]string{"1", "10"}))
		require.NoError(t, err)

		const workers = 10
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			numbers []int64
			failed  []string
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := seller.API.Do(t, http.MethodPost, "/api/v1/invoices", string(body))

				mu.Lock()
				defer mu.Unlock()
				if w.Code != http.StatusCreated {
					failed = append(failed, w.Body.String())
					return
				}
				var env struct {
					Data Invoice `json:"data"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
					failed = append(failed, err.Error())
					return
				}
				numbers = append(numbers, env.Data.Number)
			}()
		}
		wg.Wait()

		require.Empty(t, failed)
		sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
		assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, numbers)
		assert.Equal(t, int64(1), srv.DB.Count("users", "id = ? AND next_invoice_number = ?", seller.ID, 11))
	})

	t.Run("counter set from the profile", func(t *testing.T) {
		seller := srv.Register(t, "petras")
		clientID := seller.CreateClient(t, "umbrella")

		first := seller.CreateInvoice(t, InvoiceBody(clientID, today(), [2]string{"1", "10"}))
		assert.Equal(t, int64(1), first.Number)
		assert.Equal(t, "INV", first.Series)

		w := seller.API.Do(t, http.MethodPut, "/api/v1/profile", map[string]any{
			"name":                "Petras",
			"next_invoice_number": 100,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		profile := testutil.DecodeData[struct {
			NextInvoiceNumber int64 `json:"next_invoice_number"`
		}](t, w)
		assert.Equal(t, int64(100), profile.NextInvoiceNumber)

		next := seller.CreateInvoice(t, InvoiceBody(clientID, today(), [2]string{"1", "10"}))
		assert.Equal(t, int64(100), next.Number)
		assert.Equal(t, "0000100", next.DisplayNumber)
	})

	t.Run("counter cannot be moved back onto issued numbers", func(t *testing.T) {
		seller := srv.Register(t, "jurgis")
		clientID := seller.CreateClient(t, "vandelay")
		seller.CreateInvoice(t, InvoiceBody(clientID, today(), [2]string{"1", "10"}))
		seller.CreateInvoice(t, InvoiceBody(clientID, today(), [2]string{"1", "10"}))

		w := seller.API.Do(t, http.MethodPut, "/api/v1/profile", map[string]any{
			"name":                "Jurgis",
			"next_invoice_number": 1,
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "INVALID_NEXT_INVOICE_NUMBER")
		assert.Equal(t, int64(1), srv.DB.Count("users", "id = ? AND next_invoice_number = ?", seller.ID, 3))

		third := seller.CreateInvoice(t, InvoiceBody(clientID, today(), [2]string{"1", "10"}))
		assert.Equal(t, int64(3), third.Number)
		assert.Equal(t, int64(1), srv.DB.Count("invoices", "user_id = ? AND series = ? AND number = ?", seller.ID, "INV", 3))
	})

	t.Run("counters are per seller", func(t *testing.T) {
		a := srv.Register(t, "rasa")
		b := srv.Register(t, "tomas")

		a.CreateInvoice(t, InvoiceBody(a.CreateClient(t, "hooli"), today(), [2]string{"1", "1"}))
		a.CreateInvoice(t, InvoiceBody(a.CreateClient(t, "piedpiper"), today(), [2]string{"1", "1"}))
		inv := b.CreateInvoice(t, InvoiceBody(b.CreateClient(t, "aviato"), today(), [2]string{"1", "1"}))

		assert.Equal(t, int64(1), inv.Number)
	})
}
