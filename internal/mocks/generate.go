// Package mocks provides gomock implementations of the core ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	control := mocks.NewMockJobControl(ctrl)
//	control.EXPECT().ReportSuccess(gomock.Any(), "job-1").Return(nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_control_mock.go github.com/target/opsrelay/internal/core JobControl
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=status_probe_mock.go github.com/target/opsrelay/internal/core StatusProbe
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=target_lease_mock.go github.com/target/opsrelay/internal/core TargetLease
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=run_repository_mock.go github.com/target/opsrelay/internal/core RunRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=approval_lookup_mock.go github.com/target/opsrelay/internal/core ApprovalLookup
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=instance_controller_mock.go github.com/target/opsrelay/internal/core InstanceController
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=domain_manager_mock.go github.com/target/opsrelay/internal/core DomainManager
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=commit_lookup_mock.go github.com/target/opsrelay/internal/core CommitLookup
