package db

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// DBFile is the storage-layer abstraction the Catalog resolves table ids to.
// HeapFile is the only DBFile implementation this module provides: there is
// no index-backed DBFile, so every scan is a full heap scan.
type DBFile interface {
	// Descriptor returns the table's schema.
	Descriptor() *TupleDesc
	// TableID returns this file's stable table identifier.
	TableID() int
	// NumPages returns floor(fileLength / PageSize).
	NumPages() int
	readPage(pid PageID) (*HeapPage, error)
	writePage(p *HeapPage) error
}

type tableEntry struct {
	file    DBFile
	name    string
	pkField string
}

// Catalog is the registry of tables: id, name, primary-key field name, and
// backing DBFile. It is mutable and its lifecycle is tied to the owning
// Database context: there is no global catalog singleton — tests construct
// fresh ones).
type Catalog struct {
	mu     sync.RWMutex
	byID   map[int]*tableEntry
	byName map[string]int
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID:   make(map[int]*tableEntry),
		byName: make(map[string]int),
	}
}

// AddTable registers file under name with the given primary-key field name
// (may be empty if the table has none).
func (c *Catalog) AddTable(name string, file DBFile, pkField string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byName[name]; exists {
		return newErr(MalformedDataError, "table %q already registered", name)
	}
	id := file.TableID()
	c.byID[id] = &tableEntry{file: file, name: name, pkField: pkField}
	c.byName[name] = id
	return nil
}

// TableID resolves a table name to its id.
func (c *Catalog) TableID(name string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return 0, newErr(NoSuchElementError, "no table named %q", name)
	}
	return id, nil
}

// File resolves a table id to its backing DBFile.
func (c *Catalog) File(tableID int) (DBFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[tableID]
	if !ok {
		return nil, newErr(NoSuchElementError, "no table with id %d", tableID)
	}
	return e.file, nil
}

// Name resolves a table id back to its registered name.
func (c *Catalog) Name(tableID int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[tableID]
	if !ok {
		return "", newErr(NoSuchElementError, "no table with id %d", tableID)
	}
	return e.name, nil
}

// PrimaryKey returns the primary-key field name registered for tableID.
func (c *Catalog) PrimaryKey(tableID int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[tableID]
	if !ok {
		return "", newErr(NoSuchElementError, "no table with id %d", tableID)
	}
	return e.pkField, nil
}

// LoadSchemaFile parses a catalog load file: line-oriented text,
// each line "tableName (fieldName type [pk], …)" where type is "int" or
// "string" and a trailing "pk" marks the primary key. newFile is invoked
// once per line to construct the backing DBFile for that table's schema.
func (c *Catalog) LoadSchemaFile(path string, newFile func(name string, td *TupleDesc) (DBFile, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return newErr(IOError, "opening catalog file %s: %v", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, td, pk, err := parseSchemaLine(line)
		if err != nil {
			return newErr(MalformedDataError, "catalog file %s line %d: %v", path, lineNo, err)
		}
		file, err := newFile(name, td)
		if err != nil {
			return err
		}
		if err := c.AddTable(name, file, pk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return newErr(IOError, "reading catalog file %s: %v", path, err)
	}
	return nil
}

func parseSchemaLine(line string) (name string, td *TupleDesc, pk string, err error) {
	open := strings.Index(line, "(")
	close := strings.LastIndex(line, ")")
	if open < 0 || close < open {
		return "", nil, "", fmt.Errorf("expected \"name (field type [pk], ...)\", got %q", line)
	}
	name = strings.TrimSpace(line[:open])
	if name == "" {
		return "", nil, "", fmt.Errorf("missing table name")
	}
	body := line[open+1 : close]
	var fields []FieldType
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokens := strings.Fields(part)
		if len(tokens) < 2 {
			return "", nil, "", fmt.Errorf("malformed field spec %q", part)
		}
		fname, ftypeName := tokens[0], tokens[1]
		var ftype DBType
		switch ftypeName {
		case "int":
			ftype = IntType
		case "string":
			ftype = StringType
		default:
			return "", nil, "", fmt.Errorf("unknown field type %q", ftypeName)
		}
		if len(tokens) == 3 && tokens[2] == "pk" {
			pk = fname
		}
		fields = append(fields, FieldType{Name: fname, Ftype: ftype})
	}
	if len(fields) == 0 {
		return "", nil, "", fmt.Errorf("table %q has no fields", name)
	}
	td = &TupleDesc{Fields: fields}
	return name, td, pk, nil
}
