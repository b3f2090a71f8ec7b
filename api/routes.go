package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// CampaignsEndpoint is the endpoint for creating and listing campaigns
	CampaignsEndpoint = "/campaigns"
	// ActiveCampaignsEndpoint lists only campaigns whose stored state is Active
	ActiveCampaignsEndpoint = "/campaigns/active"
	// CampaignURLParam is the URL parameter carrying the campaign id
	CampaignURLParam = "campaignId"
	// CampaignEndpoint is the endpoint to get the campaign info
	CampaignEndpoint = "/campaigns/{" + CampaignURLParam + "}"
	// CampaignProgressEndpoint returns the funding progress percentage
	CampaignProgressEndpoint = CampaignEndpoint + "/progress"
	// CampaignBalanceEndpoint returns the public balance
	CampaignBalanceEndpoint = CampaignEndpoint + "/balance"
	// CampaignDonorsEndpoint returns the distinct donors count
	CampaignDonorsEndpoint = CampaignEndpoint + "/donors"
	// CampaignEndEndpoint ends a campaign (creator only)
	CampaignEndEndpoint = CampaignEndpoint + "/end"
	// CampaignWithdrawEndpoint withdraws the funds (creator only, once)
	CampaignWithdrawEndpoint = CampaignEndpoint + "/withdraw"
	// CampaignTotalEndpoint returns the sealed grand total (creator only)
	CampaignTotalEndpoint = CampaignEndpoint + "/total"
	// DonationsEndpoint is the endpoint for submitting a donation
	DonationsEndpoint = CampaignEndpoint + "/donations"
	// DonorURLParam is the URL parameter carrying the donor address
	DonorURLParam = "donorAddress"
	// DonationEndpoint returns a donor's sealed accumulated amount
	DonationEndpoint = DonationsEndpoint + "/{" + DonorURLParam + "}"
)
