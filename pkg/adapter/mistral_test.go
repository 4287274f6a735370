package adapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sante-qc/chatsante/pkg/adapter"
	"github.com/sante-qc/chatsante/pkg/model"
)

func TestMistralComplete(t *testing.T) {
	var gotAuth, gotModel, gotContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		gotContent = req.Messages[0].Content

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"22% en 2020."}}]}`))
	}))
	defer server.Close()

	client, err := adapter.NewMistral("sk-test",
		adapter.WithMistralEndpoint(server.URL),
		adapter.WithMistralModel("mistral-small"))
	gt.NoError(t, err)

	reply, err := client.Complete(context.Background(), "Quel est le taux d'asthme?")
	gt.NoError(t, err)
	gt.Equal(t, reply, "22% en 2020.")
	gt.Equal(t, gotAuth, "Bearer sk-test")
	gt.Equal(t, gotModel, "mistral-small")
	gt.Equal(t, gotContent, "Quel est le taux d'asthme?")
}

func TestMistralRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := adapter.NewMistral("sk-test", adapter.WithMistralEndpoint(server.URL))
	gt.NoError(t, err)

	_, err = client.Complete(context.Background(), "question")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrRateLimited))
}

func TestMistralServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	client, err := adapter.NewMistral("sk-test", adapter.WithMistralEndpoint(server.URL))
	gt.NoError(t, err)

	_, err = client.Complete(context.Background(), "question")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUpstream))
}

func TestMistralEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := adapter.NewMistral("sk-test", adapter.WithMistralEndpoint(server.URL))
	gt.NoError(t, err)

	_, err = client.Complete(context.Background(), "question")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUpstream))
}

func TestNewMistralKeyCleaning(t *testing.T) {
	// Keys copied out of .env files arrive with quotes and stray bytes
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Header.Get("Authorization"), "Bearer sk-test")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	client, err := adapter.NewMistral(" \"sk-test\" ", adapter.WithMistralEndpoint(server.URL))
	gt.NoError(t, err)

	_, err = client.Complete(context.Background(), "question")
	gt.NoError(t, err)

	_, err = adapter.NewMistral("  ")
	gt.Error(t, err)
}
