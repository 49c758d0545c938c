package persistence

import (
	"fmt"
	"strings"

	"github.com/ignatzorin/freight-backend/internal/repository/common"
)

// where накапливает условия WHERE с позиционными параметрами $1, $2, ...
type where struct {
	conds []string
	args  []any
}

// add принимает условие с одним %s на месте параметра.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page дописывает LIMIT/OFFSET к запросу и возвращает итоговые аргументы.
func (w *where) page(query string, limit, offset int) (string, []any) {
	lim, off := common.Page(limit, offset)
	args := append(w.args, lim, off)
	return fmt.Sprintf("%s LIMIT $%d OFFSET $%d", query, len(args)-1, len(args)), args
}
