package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-waste-client/internal/clients/rest"
	apierrors "github.com/pribylovaa/go-waste-client/internal/errors"
	"github.com/pribylovaa/go-waste-client/internal/models"
)

type recorded struct {
	method string
	uri    string
	body   string
}

// recorder - сервер, который запоминает запрос и отвечает заданным JSON.
type recorder struct {
	mu     sync.Mutex
	last   recorded
	status int
	reply  string
}

func newRecorder(t *testing.T) (*recorder, *Client) {
	t.Helper()

	rec := &recorder{status: http.StatusOK, reply: `{}`}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)

		rec.mu.Lock()
		rec.last = recorded{method: r.Method, uri: r.URL.RequestURI(), body: string(b)}
		status, reply := rec.status, rec.reply
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusNoContent {
			_, _ = w.Write([]byte(reply))
		}
	}))
	t.Cleanup(srv.Close)

	return rec, New(rest.New(srv.Client(), srv.URL))
}

func (r *recorder) respond(status int, reply string) {
	r.mu.Lock()
	r.status, r.reply = status, reply
	r.mu.Unlock()
}

func (r *recorder) request() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func TestWasteRequests_Routes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tcs := []struct {
		name       string
		call       func(c *Client) error
		wantMethod string
		wantURI    string
	}{
		{
			name: "list_with_filter",
			call: func(c *Client) error {
				_, err := c.ListWasteRequests(ctx, models.WasteRequestFilter{Status: "PENDING", Limit: 20, Cursor: "abc"})
				return err
			},
			wantMethod: http.MethodGet,
			wantURI:    "/waste-requests?cursor=abc&limit=20&status=PENDING",
		},
		{
			name: "list_no_filter",
			call: func(c *Client) error {
				_, err := c.ListWasteRequests(ctx, models.WasteRequestFilter{})
				return err
			},
			wantMethod: http.MethodGet,
			wantURI:    "/waste-requests",
		},
		{
			name:       "get",
			call:       func(c *Client) error { _, err := c.GetWasteRequest(ctx, "wr-1"); return err },
			wantMethod: http.MethodGet,
			wantURI:    "/waste-requests/wr-1",
		},
		{
			name:       "cancel",
			call:       func(c *Client) error { _, err := c.CancelWasteRequest(ctx, "wr-1"); return err },
			wantMethod: http.MethodPost,
			wantURI:    "/waste-requests/wr-1/cancel",
		},
		{
			name:       "accept",
			call:       func(c *Client) error { _, err := c.AcceptWasteRequest(ctx, "wr 2"); return err },
			wantMethod: http.MethodPost,
			wantURI:    "/waste-requests/wr%202/accept",
		},
		{
			name:       "complete",
			call:       func(c *Client) error { _, err := c.CompleteWasteRequest(ctx, "wr-3"); return err },
			wantMethod: http.MethodPost,
			wantURI:    "/waste-requests/wr-3/complete",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			rec, c := newRecorder(t)
			require.NoError(t, tc.call(c))

			got := rec.request()
			require.Equal(t, tc.wantMethod, got.method)
			require.Equal(t, tc.wantURI, got.uri)
		})
	}
}

func TestCreateWasteRequest_SendsBody_DecodesReply(t *testing.T) {
	t.Parallel()

	rec, c := newRecorder(t)
	pickup := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	rec.respond(http.StatusCreated, `{"id":"wr-9","userId":1,"category":"glass","volumeLiters":40,"status":"PENDING","pickupAt":"2026-10-20T09:00:00Z"}`)

	wr, err := c.CreateWasteRequest(context.Background(), models.CreateWasteRequest{
		Category:     "glass",
		VolumeLiters: 40,
		Address:      models.Address{Line: "Main st 1", City: "Riga"},
		PickupAt:     pickup,
	})
	require.NoError(t, err)
	require.Equal(t, "wr-9", wr.ID)
	require.Equal(t, models.WasteRequestPending, wr.Status)
	require.True(t, pickup.Equal(wr.PickupAt))

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.request().body), &sent))
	require.Equal(t, "glass", sent["category"])
	require.EqualValues(t, 40, sent["volumeLiters"])
}

func TestInvalidArguments_NoNetwork(t *testing.T) {
	t.Parallel()

	rec, c := newRecorder(t)
	ctx := context.Background()

	_, err := c.GetWasteRequest(ctx, " ")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.CreateWasteRequest(ctx, models.CreateWasteRequest{Category: "glass"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, c.DeletePaymentMethod(ctx, ""), ErrInvalidArgument)
	_, err = c.RegisterPaymentMethod(ctx, models.RegisterPaymentMethodRequest{Kind: "card"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.SubmitRoleApplication(ctx, models.SubmitRoleApplicationRequest{})
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.UpdateServiceArea(ctx, models.ServiceArea{Name: "no id"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.CreateServiceArea(ctx, models.ServiceArea{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.Equal(t, recorded{}, rec.request())
}

func TestPaymentMethods(t *testing.T) {
	t.Parallel()

	rec, c := newRecorder(t)
	ctx := context.Background()

	rec.respond(http.StatusOK, `{"items":[{"id":"pm-1","kind":"card","last4":"4242","isDefault":true}]}`)
	list, err := c.ListPaymentMethods(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "4242", list[0].Last4)
	require.Equal(t, "/payment-methods", rec.request().uri)

	rec.respond(http.StatusCreated, `{"id":"pm-2","kind":"card"}`)
	pm, err := c.RegisterPaymentMethod(ctx, models.RegisterPaymentMethodRequest{Kind: "card", ProviderToken: "tok_visa"})
	require.NoError(t, err)
	require.Equal(t, "pm-2", pm.ID)
	require.Contains(t, rec.request().body, `"providerToken":"tok_visa"`)

	rec.respond(http.StatusNoContent, "")
	require.NoError(t, c.DeletePaymentMethod(ctx, "pm-2"))
	require.Equal(t, recorded{method: http.MethodDelete, uri: "/payment-methods/pm-2"}, rec.request())
}

func TestSearchAddresses(t *testing.T) {
	t.Parallel()

	rec, c := newRecorder(t)
	ctx := context.Background()

	got, err := c.SearchAddresses(ctx, "   ")
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, recorded{}, rec.request())

	rec.respond(http.StatusOK, `{"items":[{"id":"a1","line":"Brivibas 1","city":"Riga","lat":56.95,"lng":24.1}]}`)
	got, err = c.SearchAddresses(ctx, "Brivibas & 1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Riga", got[0].City)
	require.Equal(t, "/addresses/search?q=Brivibas+%26+1", rec.request().uri)
}

func TestRoleApplications(t *testing.T) {
	t.Parallel()

	rec, c := newRecorder(t)
	ctx := context.Background()

	rec.respond(http.StatusCreated, `{"id":"ra-1","role":"DRIVER","status":"PENDING"}`)
	ra, err := c.SubmitRoleApplication(ctx, models.SubmitRoleApplicationRequest{Role: models.RoleDriver, Details: "license B"})
	require.NoError(t, err)
	require.Equal(t, models.RoleApplicationPending, ra.Status)
	require.Equal(t, http.MethodPost, rec.request().method)

	rec.respond(http.StatusOK, `{"items":[{"id":"ra-1","role":"DRIVER","status":"PENDING"}]}`)
	list, err := c.ListRoleApplications(ctx, models.RoleApplicationPending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "/role-applications?status=PENDING", rec.request().uri)

	rec.respond(http.StatusOK, `{"id":"ra-1","role":"DRIVER","status":"APPROVED"}`)
	ra, err = c.ReviewRoleApplication(ctx, "ra-1", models.ReviewRoleApplicationRequest{Approve: true})
	require.NoError(t, err)
	require.Equal(t, models.RoleApplicationApproved, ra.Status)
	require.Equal(t, "/admin/role-applications/ra-1/review", rec.request().uri)
	require.Contains(t, rec.request().body, `"approve":true`)
}

func TestServiceAreas(t *testing.T) {
	t.Parallel()

	rec, c := newRecorder(t)
	ctx := context.Background()

	rec.respond(http.StatusOK, `{"items":[{"id":"sa-1","name":"Center","city":"Riga","postalCodes":["LV-1050"],"active":true}]}`)
	list, err := c.ListServiceAreas(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"LV-1050"}, list[0].Postals)

	rec.respond(http.StatusCreated, `{"id":"sa-2","name":"North","city":"Riga","active":true}`)
	sa, err := c.CreateServiceArea(ctx, models.ServiceArea{Name: "North", City: "Riga", Active: true})
	require.NoError(t, err)
	require.Equal(t, "sa-2", sa.ID)

	rec.respond(http.StatusOK, `{"id":"sa-2","name":"North","city":"Riga","active":false}`)
	sa, err = c.UpdateServiceArea(ctx, models.ServiceArea{ID: "sa-2", Name: "North", City: "Riga"})
	require.NoError(t, err)
	require.False(t, sa.Active)
	require.Equal(t, recorded{method: http.MethodPut, uri: "/admin/service-areas/sa-2", body: rec.request().body}, rec.request())

	rec.respond(http.StatusNoContent, "")
	require.NoError(t, c.DeleteServiceArea(ctx, "sa-2"))
	require.Equal(t, http.MethodDelete, rec.request().method)
}

func TestForbidden_PropagatesAPIError(t *testing.T) {
	t.Parallel()

	rec, c := newRecorder(t)
	rec.respond(http.StatusForbidden, `{"error":{"code":"permission_denied","message":"OPERATIONS_ADMIN required"}}`)

	_, err := c.ListServiceAreas(context.Background())
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, apierrors.StatusOf(err))
	require.Contains(t, err.Error(), "api.Client.ListServiceAreas")
}
