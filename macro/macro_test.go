package macro_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theMK2k/update-db/macro"
)

func TestExpandAuditColumns(t *testing.T) {
	t.Parallel()

	body := `CREATE TABLE IF NOT EXISTS public.orders (
  id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  {{AUDIT_COLUMNS}}
);`

	got := macro.Expand(body)
	require.NotContains(t, got, "{{AUDIT_COLUMNS}}")
	require.Contains(t, got, "created_at timestamptz NOT NULL DEFAULT now()")
	require.Contains(t, got, "created_by text NOT NULL DEFAULT current_user")
	require.Contains(t, got, "deleted_by text")
}

func TestExpandAuditTrigger(t *testing.T) {
	t.Parallel()

	got := macro.Expand(`{{AUDIT_TRIGGER(public.orders)}}`)
	require.NotContains(t, got, "{{AUDIT_TRIGGER")
	require.Contains(t, got, "CREATE OR REPLACE FUNCTION public.tgf_orders_audit()")
	require.Contains(t, got, "DROP TRIGGER IF EXISTS tg_orders_audit ON public.orders;")
	require.Contains(t, got, "BEFORE INSERT OR UPDATE ON public.orders")
	require.Contains(t, got, "$$ LANGUAGE plpgsql;")
}

func TestExpandRepeatedMarkers(t *testing.T) {
	t.Parallel()

	got := macro.Expand("{{AUDIT_TRIGGER(public.orders)}}\n{{AUDIT_TRIGGER(billing.invoices)}}")
	require.Contains(t, got, "public.tgf_orders_audit")
	require.Contains(t, got, "billing.tgf_invoices_audit")
}

func TestExpandLeavesUnknownMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown marker", body: "SELECT '{{NOT_A_MARKER}}';"},
		{name: "unqualified trigger object", body: "{{AUDIT_TRIGGER(orders)}}"},
		{name: "bad identifier charset", body: "{{AUDIT_TRIGGER(public.or-ders)}}"},
		{name: "plain sql", body: "CREATE TABLE t ();"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.body, macro.Expand(tt.body))
		})
	}
}

func TestExpandIsIdempotent(t *testing.T) {
	t.Parallel()

	body := `CREATE TABLE public.orders ({{AUDIT_COLUMNS}});
{{AUDIT_TRIGGER(public.orders)}}`

	once := macro.Expand(body)
	require.Equal(t, once, macro.Expand(once))
}
