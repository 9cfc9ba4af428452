// Command dbshell is an interactive operator console: it drives scans,
// inserts, deletes, and table statistics directly against a running
// database, line by line. It is not a SQL shell — there is no parser or
// planner here, only a thin dispatch over the db package's operator tree.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/heapdb/heapdb/db"
	"github.com/heapdb/heapdb/stats"
)

const bufferPoolCapacity = 256

type shell struct {
	catalog *db.Catalog
	bp      *db.BufferPool
	txn     db.TransactionID
	stats   map[int]*stats.TableStats
}

func main() {
	catalogPath := os.Args[1:]
	if len(catalogPath) != 1 {
		fmt.Fprintln(os.Stderr, "usage: dbshell <catalog-file>")
		os.Exit(1)
	}

	catalog := db.NewCatalog()
	bp := db.NewBufferPool(bufferPoolCapacity, catalog)
	err := catalog.LoadSchemaFile(catalogPath[0], func(name string, td *db.TupleDesc) (db.DBFile, error) {
		return db.NewHeapFile(name+".dat", td, bp)
	})
	if err != nil {
		log.Fatalf("loading catalog: %v", err)
	}

	sh := &shell{catalog: catalog, bp: bp, stats: make(map[int]*stats.TableStats)}
	sh.txn = db.NewTID()

	rl, err := readline.New("heapdb> ")
	if err != nil {
		log.Fatalf("starting console: %v", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("reading input: %v", err)
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := sh.dispatch(line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}

	if err := sh.bp.TransactionComplete(sh.txn, true); err != nil {
		log.Printf("committing on exit: %v", err)
	}
}

func (s *shell) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "scan":
		return s.cmdScan(args)
	case "load":
		return s.cmdLoad(args)
	case "delete":
		return s.cmdDelete(args)
	case "stats":
		return s.cmdStats(args)
	case "tables":
		return s.cmdTables()
	case "commit":
		if err := s.bp.TransactionComplete(s.txn, true); err != nil {
			return err
		}
		s.txn = db.NewTID()
		return nil
	case "abort":
		if err := s.bp.TransactionComplete(s.txn, false); err != nil {
			return err
		}
		s.txn = db.NewTID()
		return nil
	case "exit", "quit":
		os.Exit(0)
	}
	return db.NewError(db.NoSuchElementError, "unknown command %q (try: scan, load, delete, stats, tables, commit, abort, exit)", cmd)
}

// cmdScan scans a table and prints every tuple, optionally filtered by a
// "field op value" clause: scan <table> [field op value]
func (s *shell) cmdScan(args []string) error {
	if len(args) == 0 {
		return db.NewError(db.MalformedDataError, "usage: scan <table> [field op value]")
	}
	file, desc, err := s.resolveTable(args[0])
	if err != nil {
		return err
	}

	var op db.Operator = db.NewSeqScan(file, "")
	if len(args) == 4 {
		idx, err := desc.FieldIndex(args[1])
		if err != nil {
			return err
		}
		boolOp, err := parseOp(args[2])
		if err != nil {
			return err
		}
		constant, err := parseConstant(desc, idx, args[3])
		if err != nil {
			return err
		}
		op = db.NewFilter(db.Predicate{FieldIdx: idx, Op: boolOp, Const: constant}, op)
	}

	if err := op.Open(s.txn); err != nil {
		return err
	}
	defer op.Close()

	for {
		has, err := op.HasNext()
		if err != nil {
			return err
		}
		if !has {
			return nil
		}
		t, err := op.Next()
		if err != nil {
			return err
		}
		fmt.Println(renderTuple(t))
	}
}

// cmdLoad bulk-loads a CSV file into a table: load <table> <path> [noheader]
func (s *shell) cmdLoad(args []string) error {
	if len(args) < 2 {
		return db.NewError(db.MalformedDataError, "usage: load <table> <path> [noheader]")
	}
	file, _, err := s.resolveTable(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[1])
	if err != nil {
		return db.NewError(db.IOError, "opening %s: %v", args[1], err)
	}
	defer f.Close()
	hasHeader := len(args) < 3 || args[2] != "noheader"
	return file.LoadFromCSV(f, hasHeader, ",")
}

// cmdDelete deletes every tuple matching a filter: delete <table> <field> <op> <value>
func (s *shell) cmdDelete(args []string) error {
	if len(args) != 4 {
		return db.NewError(db.MalformedDataError, "usage: delete <table> <field> <op> <value>")
	}
	file, desc, err := s.resolveTable(args[0])
	if err != nil {
		return err
	}
	idx, err := desc.FieldIndex(args[1])
	if err != nil {
		return err
	}
	boolOp, err := parseOp(args[2])
	if err != nil {
		return err
	}
	constant, err := parseConstant(desc, idx, args[3])
	if err != nil {
		return err
	}

	scan := db.NewSeqScan(file, "")
	filtered := db.NewFilter(db.Predicate{FieldIdx: idx, Op: boolOp, Const: constant}, scan)
	deleteOp := db.NewDelete(filtered, s.bp)

	if err := deleteOp.Open(s.txn); err != nil {
		return err
	}
	defer deleteOp.Close()
	has, err := deleteOp.HasNext()
	if err != nil || !has {
		return err
	}
	t, err := deleteOp.Next()
	if err != nil {
		return err
	}
	fmt.Println(renderTuple(t))
	return nil
}

// cmdStats computes (or recomputes) and prints statistics for a table.
func (s *shell) cmdStats(args []string) error {
	if len(args) == 0 {
		return db.NewError(db.MalformedDataError, "usage: stats <table>")
	}
	file, _, err := s.resolveTable(args[0])
	if err != nil {
		return err
	}
	ts, err := stats.NewTableStats(s.bp, file, 1000)
	if err != nil {
		return err
	}
	s.stats[file.TableID()] = ts
	fmt.Printf("scanCost=%.1f cardinality(sel=1.0)=%d\n", ts.EstimateScanCost(), ts.EstimateTableCardinality(1.0))
	return nil
}

func (s *shell) cmdTables() error {
	for id := range s.stats {
		name, err := s.catalog.Name(id)
		if err != nil {
			return err
		}
		fmt.Println(name)
	}
	return nil
}

func (s *shell) resolveTable(name string) (*db.HeapFile, *db.TupleDesc, error) {
	id, err := s.catalog.TableID(name)
	if err != nil {
		return nil, nil, err
	}
	dbFile, err := s.catalog.File(id)
	if err != nil {
		return nil, nil, err
	}
	file, ok := dbFile.(*db.HeapFile)
	if !ok {
		return nil, nil, db.NewError(db.SchemaMismatchError, "table %q is not heap-organized", name)
	}
	return file, file.Descriptor(), nil
}

func parseOp(s string) (db.BoolOp, error) {
	switch s {
	case "=":
		return db.OpEq, nil
	case "!=", "<>":
		return db.OpNeq, nil
	case "<":
		return db.OpLt, nil
	case "<=":
		return db.OpLe, nil
	case ">":
		return db.OpGt, nil
	case ">=":
		return db.OpGe, nil
	case "like":
		return db.OpLike, nil
	}
	return 0, db.NewError(db.MalformedDataError, "unknown operator %q", s)
}

func parseConstant(desc *db.TupleDesc, idx int, raw string) (db.Field, error) {
	switch desc.Fields[idx].Ftype {
	case db.IntType:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, db.NewError(db.MalformedDataError, "parsing int constant %q: %v", raw, err)
		}
		return db.IntField{Value: v}, nil
	default:
		return db.StringField{Value: raw}, nil
	}
}

func renderTuple(t *db.Tuple) string {
	parts := make([]string, t.NumFields())
	for i := range parts {
		f, _ := t.Field(i)
		parts[i] = f.String()
	}
	return strings.Join(parts, "\t")
}
