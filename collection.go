// Collection: the public database handle.
//
// Collection is the "one God object with a state machine" folio's DB
// struct is (db.go), generalized from folio's hash-addressed flat file
// to an in-memory arena of documents plus a set of ordered Indexes, all
// fed by a single command-queue goroutine so every insert/update/remove
// observes and leaves a consistent state (§5 single-writer discipline).
package holodoc

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var logger = logging.Logger("holodoc")

// ReadyState reports a Collection's load lifecycle.
type ReadyState int

const (
	StateLoading ReadyState = iota
	StateReady
	StateError
)

// Collection is a single schemaless document store backed by one
// append-only log file (or an in-memory Storage for tests).
type Collection struct {
	name    string
	cfg     Config
	storage Storage

	mu      sync.RWMutex
	arena   map[DocID]Doc
	ids     map[string]DocID // _id -> DocID, mirrors the _id index for O(1) arena lookups
	nextID  DocID
	indexes map[string]*Index // fieldName -> Index, always contains "_id"

	state    ReadyState
	loadErr  error

	cmdCh   chan command
	closeCh chan struct{}
	wg      sync.WaitGroup

	events *eventBus

	autocompactStop chan struct{}
}

type command struct {
	run  func()
	done chan struct{}
}

// Open loads or creates the collection backed by path, applying opts.
// It blocks until the initial load completes; a replay failure (unknown
// corruption past the configured threshold) is returned directly rather
// than left for the caller to discover on first use.
func Open(path string, opts ...Option) (*Collection, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.Hooks.validate(); err != nil {
		return nil, err
	}

	var storage Storage
	switch {
	case cfg.storage != nil:
		storage = cfg.storage
	case cfg.InMemoryOnly:
		// No file is created or opened at all: WithInMemoryOnly means
		// no disk I/O, not "a file that happens to stay empty."
		storage = newMemStorage()
	default:
		storage = NewFileStorage(path)
	}

	c := &Collection{
		name:    path,
		cfg:     cfg,
		storage: storage,
		arena:   map[DocID]Doc{},
		ids:     map[string]DocID{},
		indexes: map[string]*Index{"_id": newIndex(IndexOptions{FieldName: "_id", Unique: true})},
		cmdCh:   make(chan command),
		closeCh: make(chan struct{}),
		events:  newEventBus(),
	}

	c.wg.Add(1)
	go c.loop()

	if err := c.load(); err != nil {
		c.state = StateError
		c.loadErr = err
		c.events.emit(Event{Kind: EventError, Err: err})
		return nil, err
	}

	c.state = StateReady
	c.events.emit(Event{Kind: EventReady})
	logger.Infow("collection ready", "path", path, "docs", len(c.arena))

	if cfg.AutoCompactionIntervalMs > 0 {
		c.startAutocompaction(cfg.AutoCompactionIntervalMs)
	}

	return c, nil
}

func (c *Collection) load() error {
	raw, err := c.storage.Open()
	if err != nil {
		return err
	}
	if c.cfg.Compressed && hasZstdMagic(raw) {
		raw, err = decompressPayload(raw)
		if err != nil {
			return wrapErr(StorageError, "decompress data file", err)
		}
	}

	threshold := c.cfg.CorruptAlertThreshold
	res, err := replayLog(raw, c.cfg.Hooks, threshold)
	if err != nil {
		return err
	}

	for _, opts := range res.indexes {
		c.indexes[opts.FieldName] = newIndex(opts)
	}

	var id DocID
	for _, doc := range res.docs {
		id = c.nextID
		c.nextID++
		c.arena[id] = doc
		if sid, ok := doc["_id"].(string); ok {
			c.ids[sid] = id
		}
		for _, ix := range c.indexes {
			_ = ix.insert(id, doc) // replayed state is assumed self-consistent
		}
	}
	return nil
}

// runSync submits fn to the command-queue goroutine and blocks until it
// completes, giving every public method FIFO single-writer semantics
// without each one managing its own locking.
func (c *Collection) runSync(fn func()) {
	done := make(chan struct{})
	select {
	case c.cmdCh <- command{run: fn, done: done}:
		<-done
	case <-c.closeCh:
	}
}

func (c *Collection) loop() {
	defer c.wg.Done()
	for {
		select {
		case cmd := <-c.cmdCh:
			cmd.run()
			close(cmd.done)
		case <-c.closeCh:
			return
		}
	}
}

// Close stops the command-queue goroutine and, if autocompaction is
// running, its timer. A closed Collection's methods are no-ops.
func (c *Collection) Close() {
	if c.autocompactStop != nil {
		close(c.autocompactStop)
	}
	close(c.closeCh)
	c.wg.Wait()
}

// Insert adds doc, assigning an _id if absent. Timestamps (createdAt,
// updatedAt) are stamped when WithTimestamps is configured.
func (c *Collection) Insert(doc Doc) (Doc, error) {
	if c.state != StateReady {
		return nil, ErrClosed
	}
	var result Doc
	var outErr error
	c.runSync(func() {
		result, outErr = c.insertLocked(doc)
	})
	return result, outErr
}

// maxIDCollisionRetries bounds the regenerate-and-retry loop for an
// auto-assigned _id that collides with an existing document (§4.6
// insert step 3: "Assign _id if absent (regenerate on collision)").
const maxIDCollisionRetries = 10

func (c *Collection) insertLocked(doc Doc) (Doc, error) {
	doc = deepCopy(doc).(Doc)
	_, hasID := doc["_id"]
	autoAssigned := !hasID
	if autoAssigned {
		doc["_id"] = newDocID()
	}
	if err := checkObject(doc); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if c.cfg.Timestamps {
		doc["createdAt"] = now
		doc["updatedAt"] = now
	}

	attempts := 1
	if autoAssigned {
		attempts = maxIDCollisionRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := c.tryInsertLocked(doc)
		if err == nil {
			return result, nil
		}
		lastErr = err
		dbErr, ok := err.(*Error)
		if !autoAssigned || !ok || dbErr.Kind != UniqueViolated || dbErr.Field != "_id" {
			return nil, err
		}
		doc["_id"] = newDocID()
	}
	return nil, lastErr
}

// tryInsertLocked performs one insert attempt at doc's current _id,
// rolling back cleanly across indexes (and persistence) on any failure.
func (c *Collection) tryInsertLocked(doc Doc) (Doc, error) {
	id := c.nextID
	inserted := []*Index{}
	for _, ix := range c.orderedIndexes() {
		if err := ix.insert(id, doc); err != nil {
			for _, done := range inserted {
				done.remove(id, doc)
			}
			return nil, err
		}
		inserted = append(inserted, ix)
	}

	c.nextID++
	c.arena[id] = doc
	sid, _ := doc["_id"].(string)
	c.ids[sid] = id

	if err := c.persistAppend(doc); err != nil {
		for _, ix := range inserted {
			ix.remove(id, doc)
		}
		delete(c.arena, id)
		delete(c.ids, sid)
		return nil, err
	}

	c.events.emit(Event{Kind: EventUpdated, Collection: c.name})
	c.cfg.Metrics.countOp(c.name, "insert")
	c.cfg.Metrics.observeStats(CollectionStats{Name: c.name, DocCount: len(c.arena), IndexCount: len(c.indexes)})
	return deepCopy(doc).(Doc), nil
}

// orderedIndexes returns indexes in a stable order (_id first, then
// fieldName lexical), so inserts, updates and their rollbacks visit the
// indexes in the same order every time.
func (c *Collection) orderedIndexes() []*Index {
	names := make([]string, 0, len(c.indexes))
	for name := range c.indexes {
		if name != "_id" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]*Index, 0, len(c.indexes))
	out = append(out, c.indexes["_id"])
	for _, n := range names {
		out = append(out, c.indexes[n])
	}
	return out
}

// persistAppend durably records doc. A compressed datafile has no
// incremental-append form — it is one zstd frame, not a line inside
// one — so under WithCompression every write rewrites the whole file
// via compactLocked instead of appending a plain NDJSON line behind
// the frame (DESIGN.md).
func (c *Collection) persistAppend(doc Doc) error {
	if c.cfg.InMemoryOnly {
		return nil
	}
	if c.cfg.Compressed {
		return c.compactLocked()
	}
	line, err := appendDocLine(doc, c.cfg.Hooks)
	if err != nil {
		return wrapErr(StorageError, "serialize document", err)
	}
	if err := c.storage.Append(line); err != nil {
		return err
	}
	return nil
}

func (c *Collection) persistTombstone(id string) error {
	if c.cfg.InMemoryOnly {
		return nil
	}
	if c.cfg.Compressed {
		return c.compactLocked()
	}
	line, err := tombstoneLine(id, c.cfg.Hooks)
	if err != nil {
		return wrapErr(StorageError, "serialize tombstone", err)
	}
	return c.storage.Append(line)
}

// getCandidates returns candidate documents for plan, reaping
// TTL-expired documents first (piggybacked on the read path per §4.6,
// unless DontExpireStaleDocs is set) and narrowing via candidateIDs.
func (c *Collection) getCandidates(plan *Plan) []Doc {
	if !c.cfg.DontExpireStaleDocs {
		c.reapExpiredLocked()
	}
	ids := c.candidateIDs(plan)
	out := make([]Doc, 0, len(ids))
	for _, id := range ids {
		if doc, ok := c.arena[id]; ok {
			out = append(out, doc)
		}
	}
	return out
}

// candidateIDs picks the DocIDs a query should examine: a top-level
// field clause that can be served by an index narrows the scan
// (equality, then $in, then a range), in that precedence order (§4.6
// "Data flow on a query"); anything else falls back to a full arena
// scan. Either way the result is sorted by DocID (the order documents
// entered the arena: insertion order within one Open, and replay order
// after a reload, which need not match the original insertion order)
// so "stop after first match" and unsorted skip/limit are deterministic
// rather than at the mercy of Go's randomized map iteration.
func (c *Collection) candidateIDs(plan *Plan) []DocID {
	ids, ok := c.pickIndexedIDs(plan)
	if !ok {
		ids = make([]DocID, 0, len(c.arena))
		for id := range c.arena {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// pickIndexedIDs returns the DocIDs an indexed top-level clause
// produces, and whether one was found. A found-but-empty result (an
// index consulted but matching nothing) must not fall back to a full
// scan, so the bool is returned separately from the slice.
func (c *Collection) pickIndexedIDs(plan *Plan) ([]DocID, bool) {
	if ix, key, ok := c.equalityClause(plan); ok {
		return ix.getMatching(key), true
	}
	if ix, keys, ok := c.inClause(plan); ok {
		seen := map[DocID]bool{}
		var out []DocID
		for _, k := range keys {
			for _, id := range ix.getMatching(k) {
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
			}
		}
		return out, true
	}
	if ix, b, ok := c.rangeClause(plan); ok {
		return ix.getBetweenBounds(b), true
	}
	return nil, false
}

// equalityClause finds the first top-level field clause naming an
// indexed field with an $eq (or bare-literal) operator.
func (c *Collection) equalityClause(plan *Plan) (*Index, any, bool) {
	for _, cl := range plan.clauses {
		if cl.kind != clauseField {
			continue
		}
		ix, ok := c.indexes[cl.field]
		if !ok {
			continue
		}
		for _, op := range cl.ops {
			if op.kind == opEq {
				return ix, op.arg, true
			}
		}
	}
	return nil, nil, false
}

// inClause finds the first top-level field clause naming an indexed
// field with an $in operator.
func (c *Collection) inClause(plan *Plan) (*Index, []any, bool) {
	for _, cl := range plan.clauses {
		if cl.kind != clauseField {
			continue
		}
		ix, ok := c.indexes[cl.field]
		if !ok {
			continue
		}
		for _, op := range cl.ops {
			if op.kind == opIn {
				keys, _ := op.arg.([]any)
				return ix, keys, true
			}
		}
	}
	return nil, nil, false
}

// rangeClause finds the first top-level field clause naming an indexed
// field with any of $gt/$gte/$lt/$lte, combining all of them present on
// that one clause into a single bounds value.
func (c *Collection) rangeClause(plan *Plan) (*Index, bounds, bool) {
	for _, cl := range plan.clauses {
		if cl.kind != clauseField {
			continue
		}
		ix, ok := c.indexes[cl.field]
		if !ok {
			continue
		}
		var b bounds
		found := false
		for _, op := range cl.ops {
			switch op.kind {
			case opGt:
				b.hasLower, b.lower, b.lowerIncl = true, op.arg, false
				found = true
			case opGte:
				b.hasLower, b.lower, b.lowerIncl = true, op.arg, true
				found = true
			case opLt:
				b.hasUpper, b.upper, b.upperIncl = true, op.arg, false
				found = true
			case opLte:
				b.hasUpper, b.upper, b.upperIncl = true, op.arg, true
				found = true
			}
		}
		if found {
			return ix, b, true
		}
	}
	return nil, bounds{}, false
}

func (c *Collection) reapExpiredLocked() {
	now := time.Now().UTC()
	for _, ix := range c.indexes {
		seconds, ok := ix.ExpireAfterSeconds()
		if !ok {
			continue
		}
		var expired []DocID
		for _, id := range ix.getAll() {
			doc, ok := c.arena[id]
			if !ok {
				continue
			}
			v, ok := getOwn(doc, ix.FieldName())
			t, isTime := v.(time.Time)
			if !ok || !isTime {
				continue
			}
			if now.Sub(t) > time.Duration(seconds*float64(time.Second)) {
				expired = append(expired, id)
			}
		}
		for _, id := range expired {
			c.removeByDocID(id)
		}
	}
}

func (c *Collection) removeByDocID(id DocID) {
	doc, ok := c.arena[id]
	if !ok {
		return
	}
	for _, ix := range c.indexes {
		ix.remove(id, doc)
	}
	delete(c.arena, id)
	if sid, ok := doc["_id"].(string); ok {
		delete(c.ids, sid)
	}
	c.cfg.Metrics.observeStats(CollectionStats{Name: c.name, DocCount: len(c.arena), IndexCount: len(c.indexes)})
	if err := c.persistTombstone(doc["_id"].(string)); err != nil {
		logger.Errorw("ttl reap: persist tombstone failed", "err", err)
	}
}

// Find returns a Cursor over documents matching query. The query is
// parsed once; callers chain Sort/Skip/Limit/Projection before Exec.
func (c *Collection) Find(query map[string]any) (*Cursor, error) {
	if c.state != StateReady {
		return nil, ErrClosed
	}
	plan, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	var candidates []Doc
	c.runSync(func() {
		candidates = c.getCandidates(plan)
	})
	return newCursor(func() []Doc {
		matched := make([]Doc, 0, len(candidates))
		for _, d := range candidates {
			if plan.Match(d) {
				matched = append(matched, d)
			}
		}
		return matched
	}), nil
}

// FindOne returns the first document matching query, or ErrNotFound.
func (c *Collection) FindOne(query map[string]any) (Doc, error) {
	cur, err := c.Find(query)
	if err != nil {
		return nil, err
	}
	docs, err := cur.Limit(1).Exec()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

// Count returns the number of documents matching query.
func (c *Collection) Count(query map[string]any) (int, error) {
	cur, err := c.Find(query)
	if err != nil {
		return 0, err
	}
	docs, err := cur.Exec()
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// UpdateResult mirrors spec.md's {acknowledged, modifiedCount,
// updatedDocs?} update return shape (DESIGN.md Open Question #1).
type UpdateResult struct {
	Acknowledged bool
	ModifiedCount int
	UpdatedDocs   []Doc
}

// UpdateOptions controls Update's matching and upsert behavior.
type UpdateOptions struct {
	Multi  bool
	Upsert bool
}

// Update applies updateDoc to every document matching query (or just
// the first, unless Multi is set). The whole batch is all-or-nothing:
// if any candidate's update would violate a unique index, every index
// mutation made so far in this call is rolled back before returning the
// error (§4.2/§4.6).
func (c *Collection) Update(query map[string]any, updateDoc map[string]any, opts UpdateOptions) (UpdateResult, error) {
	if c.state != StateReady {
		return UpdateResult{}, ErrClosed
	}
	plan, err := ParseQuery(query)
	if err != nil {
		return UpdateResult{}, err
	}

	var result UpdateResult
	var outErr error
	c.runSync(func() {
		result, outErr = c.updateLocked(plan, query, updateDoc, opts)
	})
	return result, outErr
}

func (c *Collection) updateLocked(plan *Plan, query map[string]any, updateDoc map[string]any, opts UpdateOptions) (UpdateResult, error) {
	if !c.cfg.DontExpireStaleDocs {
		c.reapExpiredLocked()
	}

	var targets []DocID
	for _, id := range c.candidateIDs(plan) {
		doc, ok := c.arena[id]
		if !ok {
			continue
		}
		if plan.Match(doc) {
			targets = append(targets, id)
			if !opts.Multi {
				break
			}
		}
	}

	if len(targets) == 0 {
		if opts.Upsert {
			return c.upsertLocked(query, updateDoc)
		}
		return UpdateResult{Acknowledged: true}, nil
	}

	type applied struct {
		id     DocID
		oldDoc Doc
		newDoc Doc
	}
	var committed []applied

	rollback := func() {
		for i := len(committed) - 1; i >= 0; i-- {
			a := committed[i]
			for _, ix := range c.orderedIndexes() {
				_ = ix.update(a.id, a.newDoc, a.oldDoc)
			}
			c.arena[a.id] = a.oldDoc
		}
	}

	for _, id := range targets {
		oldDoc := c.arena[id]
		newDoc, err := applyUpdate(oldDoc, updateDoc, c.cfg.Timestamps)
		if err != nil {
			rollback()
			return UpdateResult{}, err
		}
		if c.cfg.Timestamps {
			newDoc["updatedAt"] = time.Now().UTC()
		}

		indexes := c.orderedIndexes()
		for i, ix := range indexes {
			if err := ix.update(id, oldDoc, newDoc); err != nil {
				for _, done := range indexes[:i] {
					_ = done.update(id, newDoc, oldDoc)
				}
				rollback()
				return UpdateResult{}, err
			}
		}
		c.arena[id] = newDoc
		committed = append(committed, applied{id: id, oldDoc: oldDoc, newDoc: newDoc})
	}

	if !c.cfg.InMemoryOnly {
		if c.cfg.Compressed {
			// One full rewrite covers the whole batch instead of
			// recompacting once per committed document.
			if err := c.compactLocked(); err != nil {
				rollback()
				return UpdateResult{}, err
			}
		} else {
			for _, a := range committed {
				if err := c.persistAppend(a.newDoc); err != nil {
					rollback()
					return UpdateResult{}, err
				}
			}
		}
	}

	out := UpdateResult{Acknowledged: true, ModifiedCount: len(committed)}
	for _, a := range committed {
		out.UpdatedDocs = append(out.UpdatedDocs, deepCopy(a.newDoc).(Doc))
	}
	c.events.emit(Event{Kind: EventUpdated, Collection: c.name})
	c.cfg.Metrics.countOp(c.name, "update")
	return out, nil
}

func (c *Collection) upsertLocked(query map[string]any, updateDoc map[string]any) (UpdateResult, error) {
	base := Doc{}
	for k, v := range query {
		if len(k) > 0 && k[0] != '$' {
			base[k] = v
		}
	}
	merged, err := applyUpdate(base, updateDoc, false)
	if err != nil {
		return UpdateResult{}, err
	}
	inserted, err := c.insertLocked(merged)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Acknowledged: true, ModifiedCount: 1, UpdatedDocs: []Doc{inserted}}, nil
}

// Remove deletes every document matching query (or just the first,
// unless multi is true), returning the count removed.
func (c *Collection) Remove(query map[string]any, multi bool) (int, error) {
	if c.state != StateReady {
		return 0, ErrClosed
	}
	plan, err := ParseQuery(query)
	if err != nil {
		return 0, err
	}
	var n int
	var outErr error
	c.runSync(func() {
		n, outErr = c.removeLocked(plan, multi)
	})
	return n, outErr
}

func (c *Collection) removeLocked(plan *Plan, multi bool) (int, error) {
	var targets []DocID
	for _, id := range c.candidateIDs(plan) {
		doc, ok := c.arena[id]
		if !ok {
			continue
		}
		if plan.Match(doc) {
			targets = append(targets, id)
			if !multi {
				break
			}
		}
	}
	for _, id := range targets {
		c.removeByDocID(id)
	}
	if len(targets) > 0 {
		c.events.emit(Event{Kind: EventUpdated, Collection: c.name})
		c.cfg.Metrics.countOp(c.name, "remove")
	}
	return len(targets), nil
}

// EnsureIndex declares (or, if already present with the same options,
// confirms) an index, building it from current documents and persisting
// a $$indexCreated record.
func (c *Collection) EnsureIndex(opts IndexOptions) error {
	if c.state != StateReady {
		return ErrClosed
	}
	var outErr error
	c.runSync(func() {
		outErr = c.ensureIndexLocked(opts)
	})
	return outErr
}

func (c *Collection) ensureIndexLocked(opts IndexOptions) error {
	if opts.FieldName == "" {
		return newErr(QueryMalformed, "index requires a FieldName")
	}
	ix := newIndex(opts)
	for id, doc := range c.arena {
		if err := ix.insert(id, doc); err != nil {
			return err
		}
	}
	c.indexes[opts.FieldName] = ix
	c.cfg.Metrics.observeStats(CollectionStats{Name: c.name, DocCount: len(c.arena), IndexCount: len(c.indexes)})

	if c.cfg.Compressed {
		return c.compactLocked()
	}
	if !c.cfg.InMemoryOnly {
		line, err := indexCreatedLine(opts, c.cfg.Hooks)
		if err != nil {
			return err
		}
		if err := c.storage.Append(line); err != nil {
			return err
		}
	}
	return nil
}

// RemoveIndex drops a previously ensured index.
func (c *Collection) RemoveIndex(fieldName string) error {
	if c.state != StateReady {
		return ErrClosed
	}
	var outErr error
	c.runSync(func() {
		if fieldName == "_id" {
			outErr = newErr(QueryMalformed, "cannot remove the _id index")
			return
		}
		delete(c.indexes, fieldName)
		c.cfg.Metrics.observeStats(CollectionStats{Name: c.name, DocCount: len(c.arena), IndexCount: len(c.indexes)})
		if c.cfg.Compressed {
			outErr = c.compactLocked()
			return
		}
		if !c.cfg.InMemoryOnly {
			line, err := indexRemovedLine(fieldName, c.cfg.Hooks)
			if err != nil {
				outErr = err
				return
			}
			outErr = c.storage.Append(line)
		}
	})
	return outErr
}

// CompactDatafile rewrites the log to contain exactly the live
// documents plus current index declarations, discarding tombstones and
// superseded versions, per §4.4.
func (c *Collection) CompactDatafile() error {
	if c.state != StateReady {
		return ErrClosed
	}
	var outErr error
	c.runSync(func() {
		outErr = c.compactLocked()
	})
	return outErr
}

func (c *Collection) compactLocked() error {
	if c.cfg.InMemoryOnly {
		return nil
	}
	docs := make([]Doc, 0, len(c.arena))
	for _, d := range c.arena {
		docs = append(docs, d)
	}
	var opts []IndexOptions
	for name, ix := range c.indexes {
		if name == "_id" {
			continue
		}
		seconds, hasTTL := ix.ExpireAfterSeconds()
		io := IndexOptions{FieldName: ix.FieldName(), Unique: ix.Unique(), Sparse: ix.Sparse()}
		if hasTTL {
			io.ExpireAfterSeconds = &seconds
		}
		opts = append(opts, io)
	}

	payload, err := buildCompactionPayload(docs, opts, c.cfg.Hooks)
	if err != nil {
		return wrapErr(StorageError, "build compaction payload", err)
	}
	if c.cfg.Compressed {
		payload, err = compressPayload(payload)
		if err != nil {
			return wrapErr(StorageError, "compress compaction payload", err)
		}
	}
	if err := c.storage.Rewrite(payload); err != nil {
		return err
	}
	c.events.emit(Event{Kind: EventCompacted, Collection: c.name})
	c.cfg.Metrics.countCompaction(c.name)
	logger.Infow("datafile compacted", "path", c.name, "docs", len(docs))
	return nil
}

func (c *Collection) startAutocompaction(intervalMs int) {
	interval := time.Duration(intervalMs) * time.Millisecond
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	stop := make(chan struct{})
	c.autocompactStop = stop
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.CompactDatafile(); err != nil {
					logger.Errorw("autocompaction failed", "err", err)
					c.events.emit(Event{Kind: EventError, Collection: c.name, Err: err})
				}
			case <-stop:
				return
			case <-c.closeCh:
				return
			}
		}
	}()
}

// Stats returns a point-in-time snapshot, used by the CLI's "stats"
// subcommand.
func (c *Collection) Stats() CollectionStats {
	var st CollectionStats
	c.runSync(func() {
		st = CollectionStats{
			Name:       c.name,
			DocCount:   len(c.arena),
			IndexCount: len(c.indexes),
		}
	})
	return st
}

// On subscribes fn to events of kind, returning an unsubscribe func.
func (c *Collection) On(kind EventKind, fn func(Event)) func() {
	return c.events.subscribe(kind, fn)
}

// withContext runs fn through runSync but stops waiting once ctx is
// done; fn itself is not cancelled and may still run afterwards.
func (c *Collection) withContext(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	go func() {
		c.runSync(fn)
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("holodoc: %w", ctx.Err())
	}
}
