// Package bridge provides the client for the bridge REST API.
//
// Endpoints:
//   - POST /deposit           deposit addresses for a wallet
//   - GET  /supported-assets  chains and tokens accepted for deposit
//   - GET  /status/{address}  deposit transactions for a deposit address
//   - POST /quote             fee and output estimate for a transfer
//   - POST /withdraw          withdrawal addresses for a destination
//
// Chain ids and base-unit amounts travel as JSON strings.
package bridge
