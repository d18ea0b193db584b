package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/vsopc/internal/vsop/ast"
	"github.com/dekarrin/vsopc/internal/vsop/sema"
	"github.com/dekarrin/vsopc/server/dao"
	"github.com/google/uuid"
)

type AnalysisDB struct {
	db *sql.DB
}

func (repo *AnalysisDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS analyses (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		source TEXT NOT NULL,
		submitted_at INTEGER NOT NULL,
		ok INTEGER NOT NULL,
		program TEXT NOT NULL,
		err_pos TEXT NOT NULL,
		err_kind INTEGER NOT NULL,
		err_msg TEXT NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *AnalysisDB) Create(ctx context.Context, run dao.AnalysisRun) (dao.AnalysisRun, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.AnalysisRun{}, fmt.Errorf("could not generate ID: %w", err)
	}
	run.ID = newUUID
	run.SubmittedAt = time.Now()

	var encProgram string
	if run.OK && run.Result != nil {
		encProgram, err = convertToDB_ProgramPtr(run.Result.Program)
		if err != nil {
			return dao.AnalysisRun{}, err
		}
	}

	var errPos, errMsg string
	var errKind int
	if !run.OK && run.Err != nil {
		errPos = run.Err.Pos.String()
		errKind = int(run.Err.Kind)
		errMsg = run.Err.Msg
	}

	stmt, err := repo.db.Prepare(`INSERT INTO analyses
		(id, user_id, source, submitted_at, ok, program, err_pos, err_kind, err_msg)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.AnalysisRun{}, wrapDBError(err)
	}

	_, err = stmt.ExecContext(ctx,
		run.ID.String(),
		run.UserID.String(),
		run.Source,
		run.SubmittedAt.Unix(),
		boolToInt(run.OK),
		encProgram,
		errPos,
		errKind,
		errMsg,
	)
	if err != nil {
		return dao.AnalysisRun{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, run.ID)
}

func (repo *AnalysisDB) GetByID(ctx context.Context, id uuid.UUID) (dao.AnalysisRun, error) {
	run := dao.AnalysisRun{ID: id}

	var userID string
	var submitted int64
	var ok int
	var encProgram, errPos, errMsg string
	var errKind int

	row := repo.db.QueryRowContext(ctx,
		`SELECT user_id, source, submitted_at, ok, program, err_pos, err_kind, err_msg FROM analyses WHERE id = ?;`,
		id.String(),
	)
	err := row.Scan(&userID, &run.Source, &submitted, &ok, &encProgram, &errPos, &errKind, &errMsg)
	if err != nil {
		return run, wrapDBError(err)
	}

	if err := scanAnalysisRow(&run, userID, submitted, ok, encProgram, errKind, errMsg); err != nil {
		return run, err
	}

	return run, nil
}

func (repo *AnalysisDB) GetAll(ctx context.Context) ([]dao.AnalysisRun, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, user_id, source, submitted_at, ok, program, err_kind, err_msg FROM analyses ORDER BY submitted_at ASC;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	return repo.scanAll(rows)
}

func (repo *AnalysisDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.AnalysisRun, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, user_id, source, submitted_at, ok, program, err_kind, err_msg FROM analyses WHERE user_id = ? ORDER BY submitted_at ASC;`,
		userID.String(),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	return repo.scanAll(rows)
}

func (repo *AnalysisDB) scanAll(rows *sql.Rows) ([]dao.AnalysisRun, error) {
	var all []dao.AnalysisRun

	for rows.Next() {
		var run dao.AnalysisRun
		var id, userID string
		var submitted int64
		var ok int
		var encProgram, errMsg string
		var errKind int

		err := rows.Scan(&id, &userID, &run.Source, &submitted, &ok, &encProgram, &errKind, &errMsg)
		if err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &run.ID); err != nil {
			return all, err
		}
		if err := scanAnalysisRow(&run, userID, submitted, ok, encProgram, errKind, errMsg); err != nil {
			return all, err
		}

		all = append(all, run)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

// scanAnalysisRow fills in the fields of run common to every read path once
// the raw column values have been scanned out.
func scanAnalysisRow(run *dao.AnalysisRun, userID string, submitted int64, ok int, encProgram string, errKind int, errMsg string) error {
	if err := convertFromDB_UUID(userID, &run.UserID); err != nil {
		return err
	}
	if err := convertFromDB_Time(submitted, &run.SubmittedAt); err != nil {
		return err
	}
	run.OK = ok != 0

	if run.OK {
		var prog *ast.Program
		if err := convertFromDB_ProgramPtr(encProgram, &prog); err != nil {
			return err
		}
		if prog != nil {
			result, err := sema.Analyze(prog)
			if err != nil {
				return fmt.Errorf("stored analysis marked OK but re-analysis failed: %w", err)
			}
			run.Result = result
		}
	} else if errMsg != "" {
		run.Err = &sema.Error{Kind: sema.Kind(errKind), Msg: errMsg}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (repo *AnalysisDB) Delete(ctx context.Context, id uuid.UUID) (dao.AnalysisRun, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *AnalysisDB) Close() error {
	return repo.db.Close()
}
