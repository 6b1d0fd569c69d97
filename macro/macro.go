// Package macro expands audit boilerplate markers in change scripts.
//
// Expansion is pure text substitution. It happens before hashing, so
// the ledger tracks the script as the database actually received it
// and a change to the boilerplate re-applies every script using it.
package macro

import (
	"fmt"
	"regexp"
	"strings"
)

// auditColumns is injected for {{AUDIT_COLUMNS}}. No leading or
// trailing comma, so the marker can sit inside a column list.
const auditColumns = `created_at timestamptz NOT NULL DEFAULT now(),
  created_by text NOT NULL DEFAULT current_user,
  updated_at timestamptz NOT NULL DEFAULT now(),
  updated_by text NOT NULL DEFAULT current_user,
  deleted_at timestamptz,
  deleted_by text`

// auditTrigger matches {{AUDIT_TRIGGER(<schema>.<object>)}}. Schema
// and object are plain identifiers; any other parameter form is left
// untouched.
var auditTrigger = regexp.MustCompile(`\{\{AUDIT_TRIGGER\((\w+)\.(\w+)\)\}\}`)

const auditTriggerBody = `CREATE OR REPLACE FUNCTION %[1]s.tgf_%[2]s_audit() RETURNS trigger AS $$
BEGIN
  IF TG_OP = 'INSERT' THEN
    NEW.created_at := now();
    NEW.created_by := current_user;
  END IF;
  NEW.updated_at := now();
  NEW.updated_by := current_user;
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS tg_%[2]s_audit ON %[1]s.%[2]s;

CREATE TRIGGER tg_%[2]s_audit
  BEFORE INSERT OR UPDATE ON %[1]s.%[2]s
  FOR EACH ROW EXECUTE FUNCTION %[1]s.tgf_%[2]s_audit();`

// Expand replaces every audit marker in body and returns the result.
// Replacement text is never rescanned, so expanding an already
// expanded body is a no-op. Unrecognized markers stay verbatim.
func Expand(body string) string {
	out := strings.ReplaceAll(body, "{{AUDIT_COLUMNS}}", auditColumns)
	out = auditTrigger.ReplaceAllStringFunc(out, func(m string) string {
		sub := auditTrigger.FindStringSubmatch(m)
		return fmt.Sprintf(auditTriggerBody, sub[1], sub[2])
	})
	return out
}
