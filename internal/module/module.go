// Copyright 2026 The Crewdesk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package module defines the closed enumeration of business areas that
// permissions are scoped to. The set is versioned with the database schema
// and is not user-extensible: a grant referencing a name outside this list
// is rejected at the boundary, never stored.
package module

// Module identifies a business area.
type Module string

const (
	Leads       Module = "leads"
	Clients     Module = "clients"
	Projects    Module = "projects"
	Tasks       Module = "tasks"
	Invoices    Module = "invoices"
	Estimates   Module = "estimates"
	Proposals   Module = "proposals"
	Payments    Module = "payments"
	Expenses    Module = "expenses"
	Contracts   Module = "contracts"
	Employees   Module = "employees"
	Attendance  Module = "attendance"
	Leaves      Module = "leaves"
	Events      Module = "events"
	Messages    Module = "messages"
	Tickets     Module = "tickets"
	Reports     Module = "reports"
	Settings    Module = "settings"
	NoticeBoard Module = "notice_board"
)

// All lists every checkable module, in schema order.
var All = []Module{
	Leads, Clients, Projects, Tasks, Invoices, Estimates, Proposals,
	Payments, Expenses, Contracts, Employees, Attendance, Leaves,
	Events, Messages, Tickets, Reports, Settings, NoticeBoard,
}

var valid = func() map[Module]struct{} {
	m := make(map[Module]struct{}, len(All))
	for _, mod := range All {
		m[mod] = struct{}{}
	}
	return m
}()

// Valid reports whether m is part of the closed enumeration.
func (m Module) Valid() bool {
	_, ok := valid[m]
	return ok
}

func (m Module) String() string {
	return string(m)
}
