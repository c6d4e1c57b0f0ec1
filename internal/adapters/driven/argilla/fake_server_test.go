package argilla

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeArgilla is an in-memory Argilla server covering the endpoints the
// client uses.
type fakeArgilla struct {
	mu         sync.Mutex
	nextID     int
	workspaces map[string]string // id -> name
	datasets   map[string]*fakeDataset
	records    map[string]*fakeRecord // record id -> record
	props      map[string]string      // property id -> dataset id
	failures   int                    // requests answered with 500 before serving
	requests   int
}

type fakeDataset struct {
	dataset
	published bool
	fields    map[string]bool
	questions map[string]bool
	records   []string
	props     map[string]map[string]any // name -> property
}

type fakeRecord struct {
	record
	datasetID string
}

func newFakeArgilla(t *testing.T) (*fakeArgilla, *Client) {
	t.Helper()
	fake := &fakeArgilla{
		workspaces: make(map[string]string),
		datasets:   make(map[string]*fakeDataset),
		records:    make(map[string]*fakeRecord),
		props:      make(map[string]string),
	}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	client, err := NewClient(Config{APIKey: "argilla.apikey", BaseURL: server.URL, TotalRetries: 2, RetryInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return fake, client
}

func (f *fakeArgilla) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeArgilla) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/workspaces", f.createWorkspace)
	mux.HandleFunc("GET /api/workspaces", f.listWorkspaces)
	mux.HandleFunc("DELETE /api/v1/workspaces/{id}", f.deleteWorkspace)
	mux.HandleFunc("POST /api/v1/datasets", f.createDataset)
	mux.HandleFunc("GET /api/v1/me/datasets", f.listDatasets)
	mux.HandleFunc("DELETE /api/v1/datasets/{id}", f.deleteDataset)
	mux.HandleFunc("POST /api/v1/datasets/{id}/fields", f.createField)
	mux.HandleFunc("POST /api/v1/datasets/{id}/questions", f.createQuestion)
	mux.HandleFunc("PUT /api/v1/datasets/{id}/publish", f.publish)
	mux.HandleFunc("POST /api/v1/datasets/{id}/records", f.addRecords)
	mux.HandleFunc("GET /api/v1/datasets/{id}/records", f.listRecords)
	mux.HandleFunc("PATCH /api/v1/datasets/{id}/records", f.patchRecords)
	mux.HandleFunc("POST /api/v1/records/{id}/responses", f.createResponse)
	mux.HandleFunc("GET /api/v1/me/datasets/{id}/metadata-properties", f.listProps)
	mux.HandleFunc("POST /api/v1/datasets/{id}/metadata-properties", f.createProp)
	mux.HandleFunc("DELETE /api/v1/metadata-properties/{id}", f.deleteProp)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests++
		if r.Header.Get(apiKeyHeader) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if f.failures > 0 {
			f.failures--
			http.Error(w, "internal", http.StatusInternalServerError)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeArgilla) dataset(w http.ResponseWriter, r *http.Request) (*fakeDataset, bool) {
	ds, ok := f.datasets[r.PathValue("id")]
	if !ok {
		http.Error(w, "dataset not found", http.StatusNotFound)
	}
	return ds, ok
}

func (f *fakeArgilla) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var body struct{ Name string }
	_ = json.NewDecoder(r.Body).Decode(&body)
	for _, name := range f.workspaces {
		if name == body.Name {
			http.Error(w, "conflict", http.StatusConflict)
			return
		}
	}
	id := f.id("ws")
	f.workspaces[id] = body.Name
	writeJSON(w, workspace{ID: id, Name: body.Name})
}

func (f *fakeArgilla) listWorkspaces(w http.ResponseWriter, _ *http.Request) {
	list := []workspace{}
	for id, name := range f.workspaces {
		list = append(list, workspace{ID: id, Name: name})
	}
	writeJSON(w, list)
}

func (f *fakeArgilla) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := f.workspaces[id]; !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	for _, ds := range f.datasets {
		if ds.WorkspaceID == id {
			http.Error(w, "workspace has datasets", http.StatusConflict)
			return
		}
	}
	delete(f.workspaces, id)
}

func (f *fakeArgilla) createDataset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		WorkspaceID string `json:"workspace_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	for _, ds := range f.datasets {
		if ds.Name == body.Name && ds.WorkspaceID == body.WorkspaceID {
			http.Error(w, "conflict", http.StatusConflict)
			return
		}
	}
	id := f.id("ds")
	f.datasets[id] = &fakeDataset{
		dataset:   dataset{ID: id, Name: body.Name, WorkspaceID: body.WorkspaceID},
		fields:    make(map[string]bool),
		questions: make(map[string]bool),
		props:     make(map[string]map[string]any),
	}
	writeJSON(w, idResponse{ID: id})
}

func (f *fakeArgilla) listDatasets(w http.ResponseWriter, _ *http.Request) {
	list := datasetList{Items: []dataset{}}
	for _, ds := range f.datasets {
		list.Items = append(list.Items, ds.dataset)
	}
	writeJSON(w, list)
}

func (f *fakeArgilla) deleteDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := f.dataset(w, r)
	if !ok {
		return
	}
	for _, id := range ds.records {
		delete(f.records, id)
	}
	delete(f.datasets, ds.ID)
}

func (f *fakeArgilla) createField(w http.ResponseWriter, r *http.Request) {
	ds, ok := f.dataset(w, r)
	if !ok {
		return
	}
	var body struct{ Name string }
	_ = json.NewDecoder(r.Body).Decode(&body)
	if ds.fields[body.Name] {
		http.Error(w, "conflict", http.StatusConflict)
		return
	}
	if ds.published {
		http.Error(w, "published", http.StatusUnprocessableEntity)
		return
	}
	ds.fields[body.Name] = true
	writeJSON(w, idResponse{ID: f.id("field")})
}

func (f *fakeArgilla) createQuestion(w http.ResponseWriter, r *http.Request) {
	ds, ok := f.dataset(w, r)
	if !ok {
		return
	}
	var body struct{ Name string }
	_ = json.NewDecoder(r.Body).Decode(&body)
	if ds.questions[body.Name] {
		http.Error(w, "conflict", http.StatusConflict)
		return
	}
	ds.questions[body.Name] = true
	writeJSON(w, idResponse{ID: f.id("question")})
}

func (f *fakeArgilla) publish(w http.ResponseWriter, r *http.Request) {
	ds, ok := f.dataset(w, r)
	if !ok {
		return
	}
	if ds.published {
		http.Error(w, "already published", http.StatusUnprocessableEntity)
		return
	}
	ds.published = true
	writeJSON(w, ds.dataset)
}

func (f *fakeArgilla) addRecords(w http.ResponseWriter, r *http.Request) {
	ds, ok := f.dataset(w, r)
	if !ok {
		return
	}
	var body struct{ Items []newRecord }
	_ = json.NewDecoder(r.Body).Decode(&body)
	for _, item := range body.Items {
		id := f.id("rec")
		metadata := make(map[string]any, len(item.Metadata))
		for k, v := range item.Metadata {
			metadata[k] = v
		}
		f.records[id] = &fakeRecord{
			record: record{
				ID:         id,
				Fields:     item.Fields,
				Metadata:   metadata,
				ExternalID: item.ExternalID,
			},
			datasetID: ds.ID,
		}
		ds.records = append(ds.records, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeArgilla) listRecords(w http.ResponseWriter, r *http.Request) {
	ds, ok := f.dataset(w, r)
	if !ok {
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	includeResponses := r.URL.Query().Get("include") == "responses"
	submittedOnly := r.URL.Query().Get("response_status") == "submitted"

	var matching []record
	for _, id := range ds.records {
		rec := f.records[id].record
		if submittedOnly && len(rec.Responses) == 0 {
			continue
		}
		if !includeResponses {
			rec.Responses = nil
		}
		matching = append(matching, rec)
	}

	list := recordList{Items: []record{}, Total: len(matching)}
	if offset < len(matching) {
		end := min(offset+limit, len(matching))
		list.Items = matching[offset:end]
	}
	writeJSON(w, list)
}

func (f *fakeArgilla) patchRecords(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.dataset(w, r); !ok {
		return
	}
	var body struct{ Items []recordPatch }
	_ = json.NewDecoder(r.Body).Decode(&body)
	for _, p := range body.Items {
		rec, ok := f.records[p.ID]
		if !ok {
			http.Error(w, "record not found", http.StatusUnprocessableEntity)
			return
		}
		rec.Metadata = p.Metadata
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeArgilla) createResponse(w http.ResponseWriter, r *http.Request) {
	rec, ok := f.records[r.PathValue("id")]
	if !ok {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	var body recordResponse
	_ = json.NewDecoder(r.Body).Decode(&body)
	rec.Responses = append(rec.Responses, body)
	writeJSON(w, idResponse{ID: f.id("resp")})
}

func (f *fakeArgilla) listProps(w http.ResponseWriter, r *http.Request) {
	ds, ok := f.dataset(w, r)
	if !ok {
		return
	}
	list := metadataPropertyList{Items: []metadataProperty{}}
	for name, prop := range ds.props {
		list.Items = append(list.Items, metadataProperty{ID: prop["id"].(string), Name: name})
	}
	writeJSON(w, list)
}

func (f *fakeArgilla) createProp(w http.ResponseWriter, r *http.Request) {
	ds, ok := f.dataset(w, r)
	if !ok {
		return
	}
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	name, _ := body["name"].(string)
	if _, exists := ds.props[name]; exists {
		http.Error(w, "conflict", http.StatusConflict)
		return
	}
	id := f.id("prop")
	body["id"] = id
	ds.props[name] = body
	f.props[id] = ds.ID
	writeJSON(w, idResponse{ID: id})
}

func (f *fakeArgilla) deleteProp(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dsID, ok := f.props[id]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	ds := f.datasets[dsID]
	for name, prop := range ds.props {
		if prop["id"] == id {
			delete(ds.props, name)
		}
	}
	delete(f.props, id)
}

// splitValues returns the values of the dataset's split property.
func (f *fakeArgilla) splitValues(datasetID string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	prop, ok := f.datasets[datasetID].props[SplitMetadataName]
	if !ok {
		return nil
	}
	settings, _ := prop["settings"].(map[string]any)
	values, _ := settings["values"].([]any)
	return values
}
