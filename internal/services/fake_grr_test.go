package services_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/gomega"

	"github.com/tupyy/artifact-collector/pkg/grr"
)

type approvalCall struct {
	Subject   string
	Reason    string
	Approvers []string
}

type createdFlow struct {
	ClientID string
	Args     grr.ArtifactCollectorFlowArgs
}

// fakeGrr serves the subset of the GRR API used by the collectors.
type fakeGrr struct {
	server *httptest.Server

	mu             sync.Mutex
	clients        map[string]grr.ClientInfo
	restricted     map[string]bool
	approvals      []approvalCall
	flowStates     map[string][]string
	flowBacktrace  map[string]string
	flowArchives   map[string][]byte
	hunts          map[string]string
	huntArchives   map[string][]byte
	created        []createdFlow
	searchCalls    int
	listFlowsCalls map[string]int
	getFlowCalls   map[string]int
	archiveCalls   map[string]int
	nextFlow       int
}

func newFakeGrr() *fakeGrr {
	f := &fakeGrr{
		clients:        make(map[string]grr.ClientInfo),
		restricted:     make(map[string]bool),
		flowStates:     make(map[string][]string),
		flowBacktrace:  make(map[string]string),
		flowArchives:   make(map[string][]byte),
		hunts:          make(map[string]string),
		huntArchives:   make(map[string][]byte),
		listFlowsCalls: make(map[string]int),
		getFlowCalls:   make(map[string]int),
		archiveCalls:   make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/clients", f.searchClients)
	mux.HandleFunc("GET /api/clients/{id}", f.getClient)
	mux.HandleFunc("GET /api/clients/{id}/flows", f.listFlows)
	mux.HandleFunc("POST /api/clients/{id}/flows", f.createFlow)
	mux.HandleFunc("GET /api/clients/{id}/flows/{fid}", f.getFlow)
	mux.HandleFunc("GET /api/clients/{id}/flows/{fid}/results/files-archive", f.flowArchive)
	mux.HandleFunc("GET /api/hunts/{id}", f.getHunt)
	mux.HandleFunc("GET /api/hunts/{id}/results/files-archive", f.huntArchive)
	mux.HandleFunc("POST /api/users/me/approvals/{kind}/{id}", f.createApproval)

	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeGrr) Close() {
	f.server.Close()
}

func (f *fakeGrr) Client() *grr.Client {
	c, err := grr.NewClient(f.server.URL, "admin", "secret", grr.WithRetryMax(0))
	Expect(err).NotTo(HaveOccurred())
	return c
}

func (f *fakeGrr) AddClient(id, fqdn, system string, lastSeen time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[id] = grr.ClientInfo{
		ClientID:   id,
		LastSeenAt: lastSeen.UnixMicro(),
		OSInfo:     grr.OSInfo{FQDN: fqdn, System: system},
	}
}

// Restrict makes every privileged call on subject fail with 403 until Grant is called.
func (f *fakeGrr) Restrict(subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restricted[subject] = true
}

func (f *fakeGrr) Grant(subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.restricted, subject)
}

// SetFlowStates sets the states reported by successive GetFlow calls on flows of clientID.
// The last state is repeated.
func (f *fakeGrr) SetFlowStates(clientID string, states ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flowStates[clientID] = states
}

func (f *fakeGrr) SetFlowBacktrace(clientID, backtrace string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flowBacktrace[clientID] = backtrace
}

func (f *fakeGrr) SetFlowArchive(clientID string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flowArchives[clientID] = data
}

func (f *fakeGrr) AddHunt(id, description string, archive []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hunts[id] = description
	f.huntArchives[id] = archive
}

func (f *fakeGrr) Approvals() []approvalCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]approvalCall(nil), f.approvals...)
}

func (f *fakeGrr) Created() []createdFlow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]createdFlow(nil), f.created...)
}

func (f *fakeGrr) SearchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func (f *fakeGrr) ListFlowsCalls(clientID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listFlowsCalls[clientID]
}

func (f *fakeGrr) GetFlowCalls(clientID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getFlowCalls[clientID]
}

func (f *fakeGrr) ArchiveCalls(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.archiveCalls[subject]
}

func (f *fakeGrr) searchClients(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++

	// the real server does its own fuzzy matching, the collector filters again
	items := make([]grr.ClientInfo, 0, len(f.clients))
	for _, c := range f.clients {
		items = append(items, c)
	}
	writeJSON(w, map[string]any{"items": items})
}

func (f *fakeGrr) getClient(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.clients[r.PathValue("id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, c)
}

func (f *fakeGrr) listFlows(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	f.listFlowsCalls[id]++
	if f.restricted[id] {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	writeJSON(w, map[string]any{"items": []grr.Flow{}})
}

func (f *fakeGrr) createFlow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Flow struct {
			Name string                        `json:"name"`
			Args grr.ArtifactCollectorFlowArgs `json:"args"`
		} `json:"flow"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	f.created = append(f.created, createdFlow{ClientID: id, Args: body.Flow.Args})
	f.nextFlow++
	writeJSON(w, grr.Flow{FlowID: fmt.Sprintf("F:%08X", f.nextFlow), Name: body.Flow.Name, State: grr.FlowStateRunning})
}

func (f *fakeGrr) getFlow(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	f.getFlowCalls[id]++

	state := grr.FlowStateTerminated
	if states := f.flowStates[id]; len(states) > 0 {
		state = states[0]
		if len(states) > 1 {
			f.flowStates[id] = states[1:]
		}
	}

	flow := grr.Flow{FlowID: r.PathValue("fid"), State: state}
	if state == grr.FlowStateError {
		flow.Context.Backtrace = f.flowBacktrace[id]
	}
	writeJSON(w, flow)
}

func (f *fakeGrr) flowArchive(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	f.archiveCalls[id]++
	data, ok := f.flowArchives[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write(data)
}

func (f *fakeGrr) getHunt(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	desc, ok := f.hunts[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, grr.Hunt{HuntID: id, HuntRunnerArgs: grr.HuntRunnerArgs{Description: desc}})
}

func (f *fakeGrr) huntArchive(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	f.archiveCalls[id]++
	if f.restricted[id] {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	data, ok := f.huntArchives[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write(data)
}

func (f *fakeGrr) createApproval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Approval grr.ApprovalRequest `json:"approval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.approvals = append(f.approvals, approvalCall{
		Subject:   r.PathValue("id"),
		Reason:    body.Approval.Reason,
		Approvers: body.Approval.NotifiedUsers,
	})
	writeJSON(w, map[string]any{})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(")]}'\n"))
	_ = json.NewEncoder(w).Encode(v)
}

type zipEntry struct {
	Name string
	Body string
}

// buildZip writes entries in order. Names ending with "/" are directories.
func buildZip(entries ...zipEntry) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := zw.Create(e.Name)
		Expect(err).NotTo(HaveOccurred())
		if e.Body != "" {
			_, err = fw.Write([]byte(e.Body))
			Expect(err).NotTo(HaveOccurred())
		}
	}
	Expect(zw.Close()).To(Succeed())
	return buf.Bytes()
}
