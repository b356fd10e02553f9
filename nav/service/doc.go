// Package service defines the PlanService interface and its implementation:
// the operations transports use to create coordination sessions, run the
// discover/assign/plan/mark pipeline, step agents, and export marked maps.
package service
