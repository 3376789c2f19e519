package mock

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// DirectoryCustomer is a customer entry served by the directory mock.
type DirectoryCustomer struct {
	CPF       string `json:"cpf"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Directory is an HTTP stub of the external user directory. It serves the
// customer lookup and ban-status endpoints the engine consumes.
type Directory struct {
	mu        sync.Mutex
	server    *httptest.Server
	customers map[string]DirectoryCustomer
	banned    map[string]bool
}

// NewDirectory starts a directory stub with no registered customers.
func NewDirectory() *Directory {
	d := &Directory{
		customers: make(map[string]DirectoryCustomer),
		banned:    make(map[string]bool),
	}
	d.server = httptest.NewServer(http.HandlerFunc(d.handle))
	return d
}

// URL returns the stub's base URL.
func (d *Directory) URL() string {
	return d.server.URL
}

// Close shuts the stub down.
func (d *Directory) Close() {
	d.server.Close()
}

// Register adds a customer entry.
func (d *Directory) Register(customer DirectoryCustomer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers[customer.CPF] = customer
}

// Ban marks a CPF as barred from the program.
func (d *Directory) Ban(cpf string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.banned[cpf] = true
}

// Reset drops all registered customers and bans.
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers = make(map[string]DirectoryCustomer)
	d.banned = make(map[string]bool)
}

func (d *Directory) handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/customers/")
	if path == r.URL.Path || path == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if cpf, ok := strings.CutSuffix(path, "/ban-status"); ok {
		if _, exists := d.customers[cpf]; !exists && !d.banned[cpf] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"banned": d.banned[cpf]})
		return
	}

	customer, exists := d.customers[path]
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(customer)
}
