package handler

import (
	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

// --- Request → Service input ---

func toCreateRequestInput(req createRequestRequest) ports.CreateRequestInput {
	return ports.CreateRequestInput{
		BloodGroup:      domain.BloodGroup(req.BloodGroup),
		UnitsNeeded:     req.UnitsNeeded,
		Urgency:         domain.Urgency(req.Urgency),
		HospitalName:    req.HospitalName,
		HospitalAddress: req.HospitalAddress,
		ContactPhone:    req.ContactPhone,
		AdditionalNotes: req.AdditionalNotes,
		NeededBy:        req.NeededBy,
	}
}

func toProfilePatch(req updateProfileRequest) domain.ProfilePatch {
	patch := domain.ProfilePatch{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Location:    req.Location,
		IsAvailable: req.IsAvailable,
	}
	if req.Role != nil {
		r := domain.Role(*req.Role)
		patch.Role = &r
	}
	if req.BloodGroup != nil {
		g := domain.BloodGroup(*req.BloodGroup)
		patch.BloodGroup = &g
	}
	return patch
}

// --- Service output → Response ---

func toDashboardResponse(d *ports.Dashboard) dashboardResponse {
	resp := dashboardResponse{
		Profile:      d.Profile,
		OpenRequests: d.OpenRequests,
		MyInterests:  d.MyInterests,
		Stats:        d.Stats,
	}
	if d.MyRequests != nil {
		resp.MyRequests = make([]requestWithInterests, 0, len(d.MyRequests))
		for _, r := range d.MyRequests {
			resp.MyRequests = append(resp.MyRequests, requestWithInterests{Request: r.Request, Interests: r.Interests})
		}
	}
	return resp
}
