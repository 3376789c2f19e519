package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cashback-engine/backend/internal/application/adapter"
	"github.com/cashback-engine/backend/internal/domain/entity"
)

const directoryTimeout = 5 * time.Second

var (
	_ adapter.UserDirectory = (*DirectoryService)(nil)
	_ adapter.BanList       = (*DirectoryService)(nil)
)

// DirectoryService implements adapter.UserDirectory and adapter.BanList
// against the external user directory's HTTP API.
type DirectoryService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewDirectoryService creates a new directory service client.
func NewDirectoryService(baseURL, apiKey string) *DirectoryService {
	return &DirectoryService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: directoryTimeout,
		},
	}
}

// directoryCustomerResponse is the directory's customer payload.
type directoryCustomerResponse struct {
	CPF       string `json:"cpf"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// directoryBanResponse is the directory's ban-check payload.
type directoryBanResponse struct {
	Banned bool `json:"banned"`
}

// Lookup returns the customer's directory entry, or nil when the CPF is
// unknown to the directory.
func (s *DirectoryService) Lookup(ctx context.Context, cpf string) (*entity.Customer, error) {
	var response directoryCustomerResponse
	found, err := s.get(ctx, "/v1/customers/"+url.PathEscape(cpf), &response)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return &entity.Customer{
		CPF:       response.CPF,
		FirstName: response.FirstName,
		LastName:  response.LastName,
		Email:     response.Email,
	}, nil
}

// IsBanned answers whether the customer is barred from the cashback program.
// An unknown CPF is not banned.
func (s *DirectoryService) IsBanned(ctx context.Context, cpf string) (bool, error) {
	var response directoryBanResponse
	found, err := s.get(ctx, "/v1/customers/"+url.PathEscape(cpf)+"/ban-status", &response)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return response.Banned, nil
}

// get performs an authenticated GET and decodes the body into dest. It
// returns found=false on 404 without error.
func (s *DirectoryService) get(ctx context.Context, path string, dest interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return false, fmt.Errorf("failed to decode directory response: %w", err)
	}
	return true, nil
}
