// Package salvage recovers rows from a database file too damaged for a
// VACUUM rebuild. It walks the file page by page, carves records out of
// intact table leaf pages, and re-inserts them into a fresh database built
// from a previously exported schema snapshot. Pages that are torn,
// overwritten, or belong to overflow chains are skipped; the goal is to
// save whatever is still readable, not to reconstruct the file exactly.
package salvage

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opsleuth/sqlite-doctor/backup"
)

// Table leaf pages carry this type byte at the start of their header.
const leafTablePage = 0x0D

// DefaultPageSize matches the engine's default page size.
const DefaultPageSize = 4096

// Options configures a salvage run.
type Options struct {
	// SourcePath is the damaged database file.
	SourcePath string
	// SchemaPath is a JSON snapshot written by backup.ExportSchema while
	// the database was still healthy.
	SchemaPath string
	// OutputPath receives the rebuilt database. An existing file there is
	// replaced.
	OutputPath string
	// PageSize of the source database. Zero means DefaultPageSize.
	PageSize int
}

// Report summarises what a salvage run managed to recover.
type Report struct {
	PagesScanned  int
	LeafPages     int
	RowsRecovered int
}

// target is a table in the output database a carved row may belong to.
// Carved records carry no table identity, so rows are matched by column
// count and accepted by the first table whose insert succeeds.
type target struct {
	name       string
	insertStmt string
	columns    []column
}

type column struct {
	name     string
	declType string
	pk       bool
}

// Run rebuilds OutputPath from the schema snapshot and fills it with every
// row that can be carved out of SourcePath.
func Run(opts Options) (Report, error) {
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	schemas, err := backup.LoadSchema(opts.SchemaPath)
	if err != nil {
		return Report{}, err
	}
	if len(schemas) == 0 {
		return Report{}, fmt.Errorf("schema snapshot %s contains no tables", opts.SchemaPath)
	}

	out, targets, err := prepareOutput(opts.OutputPath, schemas)
	if err != nil {
		return Report{}, err
	}
	defer out.Close()

	src, err := os.Open(opts.SourcePath)
	if err != nil {
		return Report{}, fmt.Errorf("open source database: %w", err)
	}
	defer src.Close()

	var rep Report
	page := make([]byte, pageSize)
	for pageIndex := 0; ; pageIndex++ {
		n, err := io.ReadFull(src, page)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF || n != pageSize {
			// Trailing partial page, nothing carvable.
			break
		}
		if err != nil {
			return rep, fmt.Errorf("read page %d: %w", pageIndex, err)
		}

		rep.PagesScanned++
		recovered, leaf := carvePage(page, pageIndex, targets, out)
		if leaf {
			rep.LeafPages++
		}
		rep.RowsRecovered += recovered
	}

	return rep, nil
}

// prepareOutput creates a fresh database from the snapshot DDL and builds
// the insert targets for row matching.
func prepareOutput(path string, schemas []backup.TableSchema) (*sql.DB, []target, error) {
	os.Remove(path)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output database: %w", err)
	}

	var targets []target
	for _, s := range schemas {
		if _, err := db.Exec(s.SQL); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("create table %s: %w", s.Name, err)
		}
		cols, err := tableColumns(db, s.Name)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		targets = append(targets, target{
			name:       s.Name,
			insertStmt: fmt.Sprintf("INSERT OR IGNORE INTO %s VALUES (%s)", s.Name, placeholders),
			columns:    cols,
		})
	}
	return db, targets, nil
}

func tableColumns(db *sql.DB, table string) ([]column, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []column
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, declType   string
			dflt             interface{}
		)
		if err := rows.Scan(&cid, &name, &declType, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		cols = append(cols, column{name: name, declType: declType, pk: pk == 1})
	}
	return cols, rows.Err()
}

// carvePage extracts every decodable record from one page and inserts the
// rows. Returns the number of rows recovered and whether the page was a
// table leaf at all. Decode failures within a page are expected on damaged
// files and skip only the affected cell.
func carvePage(page []byte, pageIndex int, targets []target, out *sql.DB) (int, bool) {
	// Page 1 carries the 100-byte file header before its page header.
	headerOffset := 0
	if pageIndex == 0 {
		headerOffset = 100
	}
	if headerOffset+8 > len(page) || page[headerOffset] != leafTablePage {
		return 0, false
	}

	// Page header: type byte, free-block offset (2), cell count (2), cell
	// content start (2), fragmented free bytes (1); pointer array follows.
	cellCount := int(binary.BigEndian.Uint16(page[headerOffset+3 : headerOffset+5]))

	recovered := 0
	for i := 0; i < cellCount; i++ {
		ptrOffset := headerOffset + 8 + i*2
		if ptrOffset+2 > len(page) {
			break
		}
		cellOffset := int(binary.BigEndian.Uint16(page[ptrOffset : ptrOffset+2]))
		if cellOffset >= len(page) {
			continue
		}

		rowID, values, ok := carveCell(page[cellOffset:])
		if !ok {
			continue
		}
		if insertRow(rowID, values, targets, out) {
			recovered++
		}
	}
	return recovered, true
}

// carveCell decodes one table leaf cell: payload size varint, rowid varint,
// then the record payload. Cells whose payload spills into overflow pages
// are skipped.
func carveCell(cell []byte) (uint64, []interface{}, bool) {
	payloadSize, n1 := decodeVarint(cell)
	if n1 == 0 {
		return 0, nil, false
	}
	rowID, n2 := decodeVarint(cell[n1:])
	if n2 == 0 {
		return 0, nil, false
	}

	// Compared in uint64: a hostile size varint can exceed the int range,
	// and converting it first would slip past the bounds check.
	headerLen := n1 + n2
	if payloadSize > uint64(len(cell)-headerLen) {
		return 0, nil, false
	}

	values, err := decodeRecord(cell[headerLen : headerLen+int(payloadSize)])
	if err != nil {
		return 0, nil, false
	}
	return rowID, values, true
}

// insertRow tries the carved row against every table with a matching column
// count. The first successful insert claims the row; identically shaped
// tables can therefore misattribute rows, which is accepted in exchange for
// recovering them at all.
func insertRow(rowID uint64, values []interface{}, targets []target, out *sql.DB) bool {
	for _, t := range targets {
		if len(t.columns) != len(values) {
			continue
		}

		row := make([]interface{}, len(values))
		copy(row, values)

		// An INTEGER PRIMARY KEY column is stored as NULL in the record;
		// its value is the cell's rowid.
		for i, col := range t.columns {
			if col.pk && strings.EqualFold(col.declType, "INTEGER") && row[i] == nil {
				row[i] = int64(rowID)
			}
		}

		if _, err := out.Exec(t.insertStmt, row...); err == nil {
			return true
		}
	}
	return false
}
