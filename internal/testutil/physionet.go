package testutil

// PhysioNetSubject000 holds the first five minutes (306 beats) of subject 000
// from the PhysioNet "RR Interval Time Series from Healthy Subjects" database
// (doi:10.13026/51yd-d219, CC BY 4.0), in ms.
var PhysioNetSubject000 = []int{
	789, 727, 789, 750, 812, 789, 828, 797, 867, 860, 843, 821, 812, 797, 797,
	789, 867, 828, 797, 828, 828, 868, 906, 844, 859, 844, 836, 820, 781, 828,
	782, 750, 843, 883, 836, 891, 914, 898, 938, 906, 961, 891, 968, 899, 1008,
	906, 984, 1000, 969, 1031, 992, 1071, 1078, 1078, 1031, 1078, 1047, 1039, 1078, 1032,
	1109, 1023, 1102, 1070, 1125, 1086, 1102, 1101, 1086, 1118, 1023, 1117, 1094, 1062, 1125,
	1047, 1071, 1015, 1078, 1016, 1102, 1046, 1079, 1078, 1054, 1102, 1055, 1023, 1094, 1015,
	1086, 1071, 984, 1102, 1023, 1086, 1039, 1070, 1055, 1070, 1032, 1023, 1016, 1086, 1015,
	1039, 1024, 929, 1008, 1000, 992, 985, 1023, 1016, 1000, 1015, 1024, 1000, 1023, 977,
	1023, 993, 1015, 969, 1000, 1039, 992, 1039, 1008, 969, 1000, 953, 969, 1008, 992,
	828, 984, 961, 969, 961, 961, 984, 1000, 1016, 1016, 1023, 961, 1078, 1016, 1054,
	1040, 1031, 1039, 1039, 922, 945, 984, 1008, 1063, 1031, 1047, 1101, 1047, 1047, 1016,
	1031, 977, 1000, 1007, 1016, 1008, 1008, 1031, 961, 1086, 969, 1086, 1054, 1016, 1101,
	1063, 992, 1055, 953, 1070, 977, 1023, 1016, 914, 945, 985, 976, 961, 992, 914,
	969, 984, 1016, 914, 945, 985, 890, 1040, 1000, 1015, 1055, 1055, 1085, 1016, 1070,
	1071, 1062, 1039, 1016, 1101, 1094, 1047, 1055, 1023, 938, 1054, 1032, 1047, 1023, 945,
	977, 1000, 1000, 984, 1016, 1008, 1000, 1015, 1055, 961, 1031, 1000, 969, 1062, 985,
	1047, 1054, 985, 1031, 992, 1024, 992, 969, 1039, 969, 1016, 906, 1016, 992, 945,
	985, 921, 969, 946, 1015, 977, 906, 984, 969, 984, 985, 898, 930, 937, 961,
	930, 938, 1000, 953, 922, 906, 945, 922, 969, 906, 945, 875, 914, 860, 945,
	899, 859, 914, 914, 914, 953, 906, 938, 945, 961, 906, 946, 883, 898, 922,
	883, 883, 945, 898, 899, 922,
}

// Reference values for [PhysioNetSubject000] computed with numpy and
// scipy.signal.welch (nperseg=256, noverlap=128, Hann, fs=4 Hz) followed by
// trapezoidal band integration.
const (
	PhysioNetRMSSD   = 52.622348
	PhysioNetMeanHR  = 61.230
	PhysioNetLFPower = 273.5253
	PhysioNetHFPower = 283.3852
)
