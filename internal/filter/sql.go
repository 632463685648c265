package filter

import (
	"fmt"
	"strings"

	"github.com/Dainanahan/drugtree/pkg/core"
)

// Never is the SQL condition for a selection value no row can match.
const Never = "1 = 0"

// SQLWhere renders the same conjunction Build produces as a parameterised
// SQL condition. exprs maps each level to the SQL expression holding its
// value; calendar expressions must yield integers. Values are always bound
// as arguments. An unconstrained selection yields "" and no args.
func SQLWhere(sel core.Selection, exprs map[core.Level]string, ph core.PlaceholderStyle) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	for _, l := range core.Levels() {
		v, ok := sel[l]
		if !ok || v == "" {
			continue
		}
		expr, ok := exprs[l]
		if !ok {
			return "", nil, fmt.Errorf("no SQL expression for level %s", l)
		}

		var arg any = v
		switch l {
		case core.LevelCreatedMonth:
			v = strings.TrimSpace(v)
			fallthrough
		case core.LevelCreatedYear:
			n, ok := canonicalInt(v)
			if !ok {
				conds = append(conds, Never)
				continue
			}
			arg = n
		}

		args = append(args, arg)
		conds = append(conds, fmt.Sprintf("%s = %s", expr, ph.Format(len(args))))
	}
	return strings.Join(conds, " AND "), args, nil
}
