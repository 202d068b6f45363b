package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "stayhub/internal/domain/listings"
)

func serve(t *testing.T, status int, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lodgings/lodge-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, "COP", nil)
}

func TestByIDDecodesLodging(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		threshold string
	}{
		{"numeric threshold", `{"id":"lodge-1","title":"Cabin","hostId":"h-1","pricePerNight":100,"increaseFromDay":15}`, "15"},
		{"string threshold", `{"id":"lodge-1","title":"Cabin","pricePerNight":100,"increaseFromDay":"20"}`, "20"},
		{"unparseable threshold", `{"title":"Cabin","pricePerNight":100,"increaseFromDay":"soon"}`, ""},
		{"no threshold", `{"title":"Cabin","pricePerNight":100,"extra":{"rooms":2}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := serve(t, http.StatusOK, tt.body)
			listing, err := client.ByID(context.Background(), "lodge-1")
			require.NoError(t, err)
			require.NotNil(t, listing.PricePerNight)
			assert.Equal(t, 100.0, *listing.PricePerNight)
			assert.Equal(t, tt.threshold, listing.IncreaseFromDay)
			assert.Equal(t, "COP", listing.Currency)
			assert.Equal(t, domainlistings.ListingActive, listing.State)
		})
	}
}

func TestByIDRejectsUnexpectedShapes(t *testing.T) {
	bodies := map[string]string{
		"price as string":   `{"title":"Cabin","pricePerNight":"100"}`,
		"price missing":     `{"title":"Cabin","price":100}`,
		"negative price":    `{"title":"Cabin","pricePerNight":-5}`,
		"threshold object":  `{"title":"Cabin","pricePerNight":100,"increaseFromDay":{"day":3}}`,
		"wrapped payload":   `{"data":{"pricePerNight":100}}`,
		"different lodging": `{"id":"lodge-2","title":"Cabin","pricePerNight":100}`,
		"not json":          `<html>oops</html>`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := serve(t, http.StatusOK, body)
			_, err := client.ByID(context.Background(), "lodge-1")
			assert.ErrorIs(t, err, ErrUnrecognizedShape)
		})
	}
}

func TestByIDMapsNotFound(t *testing.T) {
	client := serve(t, http.StatusNotFound, `{"error":"missing"}`)
	_, err := client.ByID(context.Background(), "lodge-1")
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)
}

func TestByIDReportsServerErrors(t *testing.T) {
	client := serve(t, http.StatusBadGateway, `upstream down`)
	_, err := client.ByID(context.Background(), "lodge-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnrecognizedShape)
	assert.Contains(t, err.Error(), "502")
}

func TestByIDRequiresBaseURL(t *testing.T) {
	_, err := (&Client{}).ByID(context.Background(), "lodge-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
