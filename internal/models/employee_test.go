package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeSnapshot(t *testing.T) {
	e := &Employee{LastName: "Ivanov", FirstName: "Pyotr", Patronymic: "Sergeevich", Login: "77_Ivanov_PS"}
	assert.Equal(t, "Ivanov Pyotr Sergeevich (77_Ivanov_PS)", e.Snapshot())

	e.Patronymic = ""
	e.Login = "77_Ivanov_P"
	assert.Equal(t, "Ivanov Pyotr (77_Ivanov_P)", e.Snapshot())

	var missing *Employee
	assert.Empty(t, missing.Snapshot())
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		NoteDate *Date `json:"note_date"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"note_date":"2024-03-05"}`), &payload))
	require.NotNil(t, payload.NoteDate)
	assert.Equal(t, "2024-03-05", payload.NoteDate.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"note_date":"2024-03-05"}`, string(out))

	err = json.Unmarshal([]byte(`{"note_date":"05.03.2024"}`), &payload)
	assert.Error(t, err)
}

func TestDateScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2023, 12, 31, 15, 4, 5, 0, time.UTC)))
	assert.Equal(t, "2023-12-31", d.String())

	require.NoError(t, d.Scan([]byte("2022-01-02T00:00:00Z")))
	assert.Equal(t, "2022-01-02", d.String())

	assert.Error(t, d.Scan(42))
}

func TestPasswordPolicyLength(t *testing.T) {
	p := DefaultPasswordPolicy()
	assert.Equal(t, 4, p.Length())

	p.AllowedSymbols = ""
	assert.Equal(t, 3, p.Length())
}
