package dispatch

import (
	"context"
	"testing"

	"github.com/shoptalk-demo/shoptalk/internal/log"
	"github.com/shoptalk-demo/shoptalk/internal/registry"
	"github.com/shoptalk-demo/shoptalk/internal/store"
	"github.com/shoptalk-demo/shoptalk/internal/toolcall"
)

func newTestDispatcher() (*Dispatcher, *store.Store) {
	st := store.New(log.NewNop())
	return New(st, log.NewNop()), st
}

func call(name, args string) toolcall.ToolCall {
	return toolcall.ToolCall{
		ID:       "call-1",
		Type:     toolcall.TypeFunction,
		Function: toolcall.FunctionCall{Name: name, Arguments: args},
	}
}

func TestExecute_SearchUser(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher()

	got := d.Execute(context.Background(), call(registry.NameSearchUser, `{"user_id":"u1"}`))

	if got.Status != toolcall.StatusOK {
		t.Fatalf("status = %q, want ok", got.Status)
	}
	u, ok := got.Result.(*store.User)
	if !ok {
		t.Fatalf("result type = %T, want *store.User", got.Result)
	}
	if u.ID != "u1" || u.Name != "Ada Lovelace" {
		t.Errorf("result user = %+v", u)
	}
	if got.DurationMs < 0 {
		t.Errorf("durationMs = %d, want >= 0", got.DurationMs)
	}
	if got.ID != "call-1" {
		t.Errorf("ID = %q, want call-1 (must be preserved)", got.ID)
	}
}

func TestExecute_SearchUser_NotFoundIsOK(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher()

	got := d.Execute(context.Background(), call(registry.NameSearchUser, `{"user_id":"u999"}`))

	if got.Status != toolcall.StatusOK {
		t.Fatalf("status = %q, want ok (not found is a normal result)", got.Status)
	}
	if got.Result != nil {
		t.Errorf("result = %#v, want nil", got.Result)
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher()

	got := d.Execute(context.Background(), call("drop_tables", `{}`))

	if got.Status != toolcall.StatusError {
		t.Fatalf("status = %q, want error", got.Status)
	}
	res, ok := got.Result.(toolcall.ErrorResult)
	if !ok {
		t.Fatalf("result type = %T, want ErrorResult", got.Result)
	}
	if res.Error != "Unknown tool" {
		t.Errorf("error = %q, want %q", res.Error, "Unknown tool")
	}
}

func TestExecute_MalformedArguments(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher()

	// Malformed JSON degrades to empty args: search_users_by_name("")
	// returns an empty slice, still status ok.
	got := d.Execute(context.Background(), call(registry.NameSearchUsersByName, `{"name": oops`))

	if got.Status != toolcall.StatusOK {
		t.Fatalf("status = %q, want ok", got.Status)
	}
	users, ok := got.Result.([]store.User)
	if !ok {
		t.Fatalf("result type = %T, want []store.User", got.Result)
	}
	if len(users) != 0 {
		t.Errorf("got %d users from empty query, want 0", len(users))
	}
}

func TestExecute_UpdateUserRecord(t *testing.T) {
	t.Parallel()

	t.Run("valid status update", func(t *testing.T) {
		t.Parallel()
		d, st := newTestDispatcher()

		got := d.Execute(context.Background(),
			call(registry.NameUpdateUserRecord, `{"user_id":"u1","field":"status","value":"inactive"}`))

		if got.Status != toolcall.StatusOK {
			t.Fatalf("status = %q, want ok", got.Status)
		}
		if st.SearchUser("u1").Status != store.StatusInactive {
			t.Error("update did not reach the store")
		}
	})

	t.Run("disallowed field never reaches the store", func(t *testing.T) {
		t.Parallel()
		d, st := newTestDispatcher()

		got := d.Execute(context.Background(),
			call(registry.NameUpdateUserRecord, `{"user_id":"u1","field":"id","value":"u3"}`))

		if got.Status != toolcall.StatusError {
			t.Fatalf("status = %q, want error", got.Status)
		}
		res, ok := got.Result.(toolcall.ErrorResult)
		if !ok {
			t.Fatalf("result type = %T, want ErrorResult", got.Result)
		}
		if res.Error == "" {
			t.Error("error message is empty")
		}
		if st.SearchUser("u1") == nil {
			t.Error("user id changed despite rejected field")
		}
	})

	t.Run("unknown user with invalid email is ok with null result", func(t *testing.T) {
		t.Parallel()
		d, _ := newTestDispatcher()

		got := d.Execute(context.Background(),
			call(registry.NameUpdateUserRecord, `{"user_id":"u99","field":"email","value":"not-an-email"}`))

		if got.Status != toolcall.StatusOK {
			t.Fatalf("status = %q, want ok (not found is a normal result)", got.Status)
		}
		if got.Result != nil {
			t.Errorf("result = %#v, want nil", got.Result)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		t.Parallel()
		d, st := newTestDispatcher()

		got := d.Execute(context.Background(),
			call(registry.NameUpdateUserRecord, `{"user_id":"u1","field":"email","value":"not-an-email"}`))

		if got.Status != toolcall.StatusError {
			t.Fatalf("status = %q, want error", got.Status)
		}
		if st.SearchUser("u1").Email != "ada@example.com" {
			t.Error("email changed despite validation error")
		}
	})

	t.Run("numeric value is coerced to string", func(t *testing.T) {
		t.Parallel()
		d, st := newTestDispatcher()

		got := d.Execute(context.Background(),
			call(registry.NameUpdateUserRecord, `{"user_id":"u1","field":"name","value":42}`))

		if got.Status != toolcall.StatusOK {
			t.Fatalf("status = %q, want ok", got.Status)
		}
		if st.SearchUser("u1").Name != "42" {
			t.Errorf("name = %q, want coerced \"42\"", st.SearchUser("u1").Name)
		}
	})
}

func TestExecute_ResetDB(t *testing.T) {
	t.Parallel()
	d, st := newTestDispatcher()

	if _, err := st.UpdateUserRecord("u1", store.FieldName, "Changed"); err != nil {
		t.Fatalf("seeding mutation: %v", err)
	}

	got := d.Execute(context.Background(), call(registry.NameResetDB, `{}`))

	if got.Status != toolcall.StatusOK {
		t.Fatalf("status = %q, want ok", got.Status)
	}
	snap, ok := got.Result.(store.Snapshot)
	if !ok {
		t.Fatalf("result type = %T, want store.Snapshot", got.Result)
	}
	if snap.Users[0].Name != "Ada Lovelace" {
		t.Errorf("reset snapshot name = %q, want seed value", snap.Users[0].Name)
	}
}

func TestExecute_SearchProduct_EmptyQueryMatchesAll(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher()

	got := d.Execute(context.Background(), call(registry.NameSearchProduct, `{}`))

	products, ok := got.Result.([]store.Product)
	if !ok {
		t.Fatalf("result type = %T, want []store.Product", got.Result)
	}
	if len(products) != 2 {
		t.Errorf("got %d products for empty query, want all 2", len(products))
	}
}

func TestExecuteAll_PreservesOrder(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher()

	calls := []toolcall.ToolCall{
		{ID: "a", Type: toolcall.TypeFunction, Function: toolcall.FunctionCall{Name: registry.NameListUsers, Arguments: `{}`}},
		{ID: "b", Type: toolcall.TypeFunction, Function: toolcall.FunctionCall{Name: registry.NameListProducts, Arguments: `{}`}},
	}

	got := d.ExecuteAll(context.Background(), calls)

	if len(got) != 2 {
		t.Fatalf("got %d enriched calls, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("order not preserved: [%s %s]", got[0].ID, got[1].ID)
	}
	for _, tc := range got {
		if tc.Status != toolcall.StatusOK {
			t.Errorf("call %s status = %q, want ok", tc.ID, tc.Status)
		}
		if tc.DurationMs < 0 {
			t.Errorf("call %s durationMs = %d, want >= 0", tc.ID, tc.DurationMs)
		}
	}
}

func TestExecuteAll_SameUserLastWriteWins(t *testing.T) {
	t.Parallel()
	d, st := newTestDispatcher()

	calls := []toolcall.ToolCall{
		call(registry.NameUpdateUserRecord, `{"user_id":"u1","field":"name","value":"First"}`),
		call(registry.NameUpdateUserRecord, `{"user_id":"u1","field":"name","value":"Second"}`),
	}
	got := d.ExecuteAll(context.Background(), calls)

	for i, tc := range got {
		if tc.Status != toolcall.StatusOK {
			t.Fatalf("call %d status = %q, want ok", i, tc.Status)
		}
	}
	if name := st.SearchUser("u1").Name; name != "Second" {
		t.Errorf("name = %q, want last write (Second)", name)
	}
}
