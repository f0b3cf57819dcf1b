// Package models defines the core domain records for the group ledger.
//
// # Models
//
//   - MemberID: tagged identity for a registered user or an unregistered
//     "friend" placeholder within a group
//   - Group: a set of members sharing expenses in one base currency
//   - Expense: a paid amount split across participants
//   - ShareLine: one member's computed portion of a split expense
//   - Balance: the running signed base-currency balance for one member
//   - Settlement: a payment between members that clears debt
//
// # Design principles
//
//  1. Member identity is parsed and validated once at the boundary
//     (ParseMemberID); business logic never re-interprets the wire prefix.
//  2. Monetary amounts are exact decimals (internal/money); floats never
//     enter a record.
//  3. Records reference each other by ID strings, not pointers, so they
//     serialize cleanly and avoid circular references.
package models
